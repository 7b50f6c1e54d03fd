package store

import "time"

// The table and column names below are a contract shared with the external
// query tooling and must not be renamed without a coordinated migration.

// Transaction is one observed mempool transaction. Inserted once per txid,
// never updated, removed by retention purge.
type Transaction struct {
	Txid      string    `gorm:"column:txid;primaryKey"`
	FetchedAt time.Time `gorm:"column:fetched_at;index"`
	Fee       int64     `gorm:"column:fee"`
	Vsize     int64     `gorm:"column:vsize"`
}

func (Transaction) TableName() string { return "tx" }

// TxInput is one input of a Transaction. Address and value are absent for
// pruned or coinbase-like inputs.
type TxInput struct {
	Txid     string  `gorm:"column:txid;index"`
	PrevTxid string  `gorm:"column:prev_txid;index:idx_inputs_prev"`
	PrevVout uint32  `gorm:"column:prev_vout;index:idx_inputs_prev"`
	Address  *string `gorm:"column:address"`
	Value    *int64  `gorm:"column:value"`
	Sequence uint32  `gorm:"column:sequence"`
}

func (TxInput) TableName() string { return "tx_inputs" }

// TxOutput is one output of a Transaction, keyed by (txid, vout_index).
type TxOutput struct {
	Txid      string  `gorm:"column:txid;primaryKey"`
	VoutIndex uint32  `gorm:"column:vout_index;primaryKey"`
	Address   *string `gorm:"column:address"`
	Value     int64   `gorm:"column:value"`
}

func (TxOutput) TableName() string { return "tx_outputs" }

// RBFCandidate marks a transaction whose inputs opt in to replacement.
type RBFCandidate struct {
	Txid    string    `gorm:"column:txid;primaryKey"`
	AddedAt time.Time `gorm:"column:added_at;index"`
}

func (RBFCandidate) TableName() string { return "rbf_txs" }

// Replacement is one detected fee bump: new_txid replaced orig_txid and
// funded the bump by shrinking the change output.
type Replacement struct {
	OrigTxid        string    `gorm:"column:orig_txid;primaryKey"`
	NewTxid         string    `gorm:"column:new_txid;primaryKey"`
	ChangeAddress   string    `gorm:"column:change_address;primaryKey"`
	ChangeVoutIndex uint32    `gorm:"column:change_vout_index;primaryKey"`
	OldValue        int64     `gorm:"column:old_value"`
	NewValue        int64     `gorm:"column:new_value"`
	Diff            int64     `gorm:"column:diff"`
	DetectedAt      time.Time `gorm:"column:detected_at;index"`
}

func (Replacement) TableName() string { return "replacements" }

// ChangeInput links a detected change address to one input address that
// funded the replaced transaction. Never purged.
type ChangeInput struct {
	OrigTxid        string    `gorm:"column:orig_txid;primaryKey"`
	NewTxid         string    `gorm:"column:new_txid;primaryKey"`
	ChangeAddress   string    `gorm:"column:change_address;primaryKey"`
	ChangeVoutIndex uint32    `gorm:"column:change_vout_index;primaryKey"`
	InputAddress    string    `gorm:"column:input_address;primaryKey"`
	DetectedAt      time.Time `gorm:"column:detected_at"`
}

func (ChangeInput) TableName() string { return "change_inputs" }
