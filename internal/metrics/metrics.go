// Package metrics exposes the engine's Prometheus instrumentation:
// generation throughput, buffer depth and cache hit/miss counters, scraped
// at /metrics by the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChallengesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imhumane",
		Name:      "challenges_generated_total",
		Help:      "Total number of challenges successfully generated and pushed to the buffer.",
	})

	GenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imhumane",
		Name:      "generation_failures_total",
		Help:      "Total number of generator iterations that failed and were retried.",
	})

	BufferDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "imhumane",
		Name:      "buffer_depth",
		Help:      "Current number of ready challenges sitting in the Challenge Buffer.",
	})

	ThumbnailCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imhumane",
		Name:      "thumbnail_cache_hits_total",
		Help:      "Total number of get_thumbnail calls served from an existing on-disk thumbnail.",
	})

	ThumbnailCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imhumane",
		Name:      "thumbnail_cache_misses_total",
		Help:      "Total number of get_thumbnail calls that regenerated the thumbnail.",
	})

	MirrorObjectsDownloaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imhumane",
		Name:      "mirror_objects_downloaded_total",
		Help:      "Total number of S3 objects downloaded by the collection mirror.",
	})

	WatcherRescans = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imhumane",
		Name:      "watcher_rescans_total",
		Help:      "Total number of registry rescans triggered by the collection watcher.",
	})
)
