package esplora

// RBFSequenceThreshold is the highest sequence number that still opts a
// transaction input out of replaceability (BIP 125).
const RBFSequenceThreshold uint32 = 0xFFFFFFFE

// Tx is the transaction detail shape served by an Esplora-style API.
// Prevout and scriptpubkey_address may be absent for pruned or
// coinbase-like inputs and non-address outputs.
type Tx struct {
	Txid     string   `json:"txid"`
	Fee      int64    `json:"fee"`
	Vsize    int64    `json:"vsize"`
	Size     int64    `json:"size"`
	Weight   int64    `json:"weight"`
	Sigops   int64    `json:"sigops"`
	Locktime uint32   `json:"locktime"`
	Status   TxStatus `json:"status"`
	Vin      []Vin    `json:"vin"`
	Vout     []Vout   `json:"vout"`
}

type TxStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

type Vin struct {
	Txid     string   `json:"txid"`
	Vout     uint32   `json:"vout"`
	Sequence uint32   `json:"sequence"`
	Prevout  *Prevout `json:"prevout"`
}

type Prevout struct {
	ScriptpubkeyAddress *string `json:"scriptpubkey_address"`
	Value               int64   `json:"value"`
}

type Vout struct {
	ScriptpubkeyAddress *string `json:"scriptpubkey_address"`
	Value               int64   `json:"value"`
	ScriptpubkeyType    string  `json:"scriptpubkey_type"`
}

// SignalsRBF reports whether any input advertises opt-in replaceability.
func (t *Tx) SignalsRBF() bool {
	for _, vin := range t.Vin {
		if vin.Sequence < RBFSequenceThreshold {
			return true
		}
	}
	return false
}
