package archive

import "rbftrack/internal/esplora"

// ArchivedTx is one fetched replacement transaction together with the
// change address attributed to it. The embedded transaction marshals
// inline, so the archive file keeps the raw API shape plus one extra field.
type ArchivedTx struct {
	esplora.Tx
	ChangeAddress string `json:"change_address"`
}
