package metrics

import (
	"context"
	"testing"

	"clipstream/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPlayCountSource struct {
	clips []*model.Clip
}

func (s *staticPlayCountSource) GetAllClips(context.Context) ([]*model.Clip, error) {
	return s.clips, nil
}

func TestPlayCountCollector(t *testing.T) {
	RegisterPlayCountCollector(&staticPlayCountSource{
		clips: []*model.Clip{
			{ID: 1, Title: "Ocean Waves", PlayCount: 5},
			{ID: 2, Title: "Urban Beat", PlayCount: 0},
		},
	})

	families, err := Registry.Gather()
	require.NoError(t, err)

	var found int
	for _, family := range families {
		if family.GetName() != "clipstream_clips_play_count" {
			continue
		}
		found = len(family.GetMetric())
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range m.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			switch labels["clip_id"] {
			case "1":
				assert.Equal(t, float64(5), m.GetGauge().GetValue())
			case "2":
				assert.Equal(t, float64(0), m.GetGauge().GetValue())
			}
		}
	}
	assert.Equal(t, 2, found)
}

func TestCanonicalPath(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"/", "/"},
		{"/health", "/health"},
		{"/clips", "/clips"},
		{"/clips/popular", "/clips/popular"},
		{"/clips/42", "/clips/:id"},
		{"/clips/42/stream", "/clips/:id/stream"},
		{"/clips/42/stats", "/clips/:id/stats"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, canonicalPath(tc.raw), tc.raw)
	}
}
