package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clipstream/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clipstream",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipstream",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clipstream",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	clipStreams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipstream",
			Subsystem: "clips",
			Name:      "streams_total",
			Help:      "Total number of successfully served stream requests per clip.",
		},
		[]string{"clip_id"},
	)

	storeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clipstream",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Total number of errors talking to the relational store.",
		},
	)

	playCountDesc = prometheus.NewDesc(
		prometheus.BuildFQName("clipstream", "clips", "play_count"),
		"Current stored play count per clip.",
		[]string{"clip_id", "title"},
		nil,
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		clipStreams,
		storeErrors,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRequest records counter and latency metrics for one HTTP request.
func RecordRequest(method, path string, status int, duration time.Duration) {
	canonical := canonicalPath(path)
	httpRequests.WithLabelValues(method, canonical, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, canonical).Observe(duration.Seconds())
}

// IncInFlight marks a request as started.
func IncInFlight() {
	httpInFlight.Inc()
}

// DecInFlight marks a request as finished.
func DecInFlight() {
	httpInFlight.Dec()
}

// RecordClipStream records one successfully served stream request.
func RecordClipStream(clipID int64) {
	clipStreams.WithLabelValues(strconv.FormatInt(clipID, 10)).Inc()
}

// RecordStoreError records one failed store operation.
func RecordStoreError() {
	storeErrors.Inc()
}

// PlayCountSource supplies current clip records for the play-count gauges.
// The repository satisfies it; scraping logic lives entirely here.
type PlayCountSource interface {
	GetAllClips(ctx context.Context) ([]*model.Clip, error)
}

type playCountCollector struct {
	src PlayCountSource
}

// RegisterPlayCountCollector exposes the per-clip play count as a gauge,
// read from the source on every scrape.
func RegisterPlayCountCollector(src PlayCountSource) {
	Registry.MustRegister(&playCountCollector{src: src})
}

func (c *playCountCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- playCountDesc
}

func (c *playCountCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clips, err := c.src.GetAllClips(ctx)
	if err != nil {
		// A failed scrape must not take the endpoint down; the store error
		// counter makes the failure visible instead.
		storeErrors.Inc()
		return
	}

	for _, clip := range clips {
		ch <- prometheus.MustNewConstMetric(
			playCountDesc,
			prometheus.GaugeValue,
			float64(clip.PlayCount),
			strconv.FormatInt(clip.ID, 10),
			clip.Title,
		)
	}
}

// canonicalPath collapses per-clip paths so the label cardinality stays
// bounded by the route table, not by the number of clips.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "clips" {
		return "/" + strings.Join(parts, "/")
	}
	if len(parts) == 1 {
		return "/clips"
	}
	if parts[1] == "popular" {
		return "/clips/popular"
	}
	if len(parts) == 2 {
		return "/clips/:id"
	}
	return "/clips/:id/" + parts[2]
}
