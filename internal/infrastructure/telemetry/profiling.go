package telemetry

import (
	"context"
	"maps"
	"slices"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelOperation = "operation"
	ProfilingLabelComponent = "component"
	ProfilingLabelMethod    = "method"
	ProfilingLabelRoute     = "route"
	ProfilingLabelResource  = "resource"
)

// Ledger operations worth separating in CPU profiles
const (
	OperationPostJournal   = "post_journal"
	OperationRecordPayment = "record_payment"
	OperationClosePeriod   = "close_period"
	OperationIngestEvent   = "ingest_event"
)

// LedgerOperationLabels labels a ledger operation
func LedgerOperationLabels(operation string) map[string]string {
	return map[string]string{
		ProfilingLabelComponent: "ledger",
		ProfilingLabelOperation: operation,
	}
}

// WithProfilingLabels runs fn with the labels attached to the goroutine's
// profile samples. Labels must be low cardinality; never pass IDs.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	if len(labels) == 0 {
		fn(ctx)
		return
	}
	keys := slices.Sorted(maps.Keys(labels))
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		if labels[k] == "" {
			continue
		}
		pairs = append(pairs, k, labels[k])
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}
