// Package observability exposes Prometheus metrics for the sync pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sislog"

var (
	actionsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "state",
		Name:      "actions_total",
		Help:      "Actions applied by the state store, by kind.",
	}, []string{"kind"})

	snapshotsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "snapshots_total",
		Help:      "Collection snapshots dispatched into the state store.",
	}, []string{"collection"})

	snapshotSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "snapshot_documents",
		Help:      "Documents in the most recent snapshot of each collection.",
	}, []string{"collection"})

	decodeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "decode_failures_total",
		Help:      "Documents skipped because they could not be decoded.",
	}, []string{"collection"})

	gatewayOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "operations_total",
		Help:      "Log entry mutations forwarded to the document store, by operation and result.",
	}, []string{"op", "result"})

	clockTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "clock",
		Name:      "ticks_total",
		Help:      "Timecode ticks produced by the clock engine.",
	})

	clockManual = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "clock",
		Name:      "manual_mode",
		Help:      "1 while the clock engine runs from a manual anchor, 0 in wall-clock mode.",
	})

	storeRescans = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "docstore",
		Name:      "rescans_total",
		Help:      "Rescans triggered by changes to the database file from other processes.",
	})
)

func init() {
	prometheus.MustRegister(
		actionsDispatched,
		snapshotsApplied,
		snapshotSize,
		decodeFailures,
		gatewayOps,
		clockTicks,
		clockManual,
		storeRescans,
	)
}

// RecordAction counts an applied state action.
func RecordAction(kind string) {
	actionsDispatched.WithLabelValues(kind).Inc()
}

// RecordSnapshot counts a dispatched collection snapshot and records its size.
func RecordSnapshot(collection string, documents int) {
	snapshotsApplied.WithLabelValues(collection).Inc()
	snapshotSize.WithLabelValues(collection).Set(float64(documents))
}

// RecordDecodeFailure counts a document dropped from a snapshot.
func RecordDecodeFailure(collection string) {
	decodeFailures.WithLabelValues(collection).Inc()
}

// RecordGatewayOp counts a gateway mutation. err == nil records "ok".
func RecordGatewayOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	gatewayOps.WithLabelValues(op, result).Inc()
}

// RecordTick counts one clock engine tick.
func RecordTick() {
	clockTicks.Inc()
}

// RecordClockMode sets the manual-mode gauge.
func RecordClockMode(manual bool) {
	if manual {
		clockManual.Set(1)
		return
	}
	clockManual.Set(0)
}

// RecordRescan counts a database-file triggered rescan.
func RecordRescan() {
	storeRescans.Inc()
}
