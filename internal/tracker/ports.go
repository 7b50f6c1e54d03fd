package tracker

import (
	"context"

	"rbftrack/internal/esplora"
)

// SnapshotFetcher retrieves the full current mempool txid set.
type SnapshotFetcher interface {
	MempoolTxids(ctx context.Context) ([]string, error)
}

// TxFetcher retrieves full transaction detail for one txid.
type TxFetcher interface {
	Tx(ctx context.Context, txid string) (*esplora.Tx, error)
}

// MempoolClient is the combined API surface the tracker consumes; it is
// satisfied by *esplora.Client.
type MempoolClient interface {
	SnapshotFetcher
	TxFetcher
}
