package flush

//go:generate mockgen -source=interface.go -destination=mock_interface.go -package=flush

import (
	"context"

	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
)

// Source produces one snapshot per window and resets its state.
// *aggregator.Registry implements it.
type Source interface {
	SnapshotAndReset() aggregator.Snapshot
}

// Encoder renders a snapshot into wire records.
type Encoder interface {
	Encode(snap aggregator.Snapshot) [][]byte
}

// Transport delivers one batch of records. It is called at most once per
// window and never concurrently with itself. Implementations must honor
// ctx cancellation; errors are logged and counted, never retried.
type Transport interface {
	Send(ctx context.Context, batch [][]byte) error
}
