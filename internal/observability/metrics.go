package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskchat_messages_sent_total",
			Help: "Total number of messages appended to the ledger.",
		},
		[]string{"peer_kind"},
	)
	messagesEditedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deskchat_messages_edited_total",
			Help: "Total number of successful message edits.",
		},
	)
	messagesDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deskchat_messages_deleted_total",
			Help: "Total number of messages tombstoned.",
		},
	)
	attachmentsStoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deskchat_attachments_stored_total",
			Help: "Total number of files copied into the attachment store.",
		},
	)
	refreshTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deskchat_refresh_ticks_total",
			Help: "Total number of refresh poller ticks that delivered a transcript.",
		},
	)
	refreshErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deskchat_refresh_errors_total",
			Help: "Total number of refresh ticks that failed and were retried.",
		},
	)
	transcriptBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskchat_transcript_build_duration_seconds",
			Help:    "Transcript projection build latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		messagesSentTotal,
		messagesEditedTotal,
		messagesDeletedTotal,
		attachmentsStoredTotal,
		refreshTicksTotal,
		refreshErrorsTotal,
		transcriptBuildDuration,
	)
}

func IncMessageSent(peerKind string) {
	messagesSentTotal.WithLabelValues(peerKind).Inc()
}

func IncMessageEdited() {
	messagesEditedTotal.Inc()
}

func IncMessageDeleted() {
	messagesDeletedTotal.Inc()
}

func IncAttachmentStored() {
	attachmentsStoredTotal.Inc()
}

func IncRefreshTick() {
	refreshTicksTotal.Inc()
}

func IncRefreshError() {
	refreshErrorsTotal.Inc()
}

func ObserveTranscriptBuild(d time.Duration) {
	transcriptBuildDuration.Observe(d.Seconds())
}

// Serve exposes /metrics on the given address. Intended for a localhost
// listener; the chat itself has no network surface.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
