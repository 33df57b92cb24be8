package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateClipRequestValidate(t *testing.T) {
	valid := CreateClipRequest{
		Title:    "Ocean Waves",
		Genre:    "ambient",
		Duration: "30s",
		AudioURL: "https://example.com/ocean.wav",
	}
	assert.NoError(t, valid.Validate())

	objectBacked := valid
	objectBacked.AudioURL = "audio/ocean.wav"
	assert.NoError(t, objectBacked.Validate())

	cases := []struct {
		name   string
		mutate func(*CreateClipRequest)
	}{
		{"empty title", func(r *CreateClipRequest) { r.Title = "  " }},
		{"empty genre", func(r *CreateClipRequest) { r.Genre = "" }},
		{"empty duration", func(r *CreateClipRequest) { r.Duration = "" }},
		{"empty audio url", func(r *CreateClipRequest) { r.AudioURL = "" }},
		{"unsupported scheme", func(r *CreateClipRequest) { r.AudioURL = "ftp://example.com/a.wav" }},
		{"bare path", func(r *CreateClipRequest) { r.AudioURL = "covers/a.jpg" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestClipHasRemoteSource(t *testing.T) {
	remote := Clip{AudioURL: "https://example.com/a.wav"}
	assert.True(t, remote.HasRemoteSource())

	insecure := Clip{AudioURL: "http://example.com/a.wav"}
	assert.True(t, insecure.HasRemoteSource())

	object := Clip{AudioURL: "audio/a.wav"}
	assert.False(t, object.HasRemoteSource())
}

func TestClipStatsView(t *testing.T) {
	clip := Clip{
		ID:          3,
		Title:       "Jazz Piano",
		Description: "Smooth jazz piano improvisation",
		Genre:       "jazz",
		Duration:    "35s",
		PlayCount:   7,
	}

	stats := clip.Stats()
	assert.Equal(t, int64(3), stats.ID)
	assert.Equal(t, "Jazz Piano", stats.Title)
	assert.Equal(t, int64(7), stats.PlayCount)
	assert.Equal(t, "jazz", stats.Genre)
}
