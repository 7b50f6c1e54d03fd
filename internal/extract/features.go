// Package extract turns archived replacement transactions into tabular ML
// features for change-address prediction models.
package extract

import (
	"math"
	"sort"
	"strings"

	"rbftrack/internal/archive"
	"rbftrack/internal/esplora"
)

// Locktime values at or above this threshold encode a unix timestamp
// instead of a block height.
const timestampLockThreshold = 500_000_000

const dustThreshold = 1000

// Features is one extracted row. Field order matches the CSV column order.
type Features struct {
	RowNumber int

	Locktime           uint32
	IsTimestampLock    int
	BlocksUntilUnlock  int64
	SecondsUntilUnlock int64
	AlreadyUnlocked    int

	NInputs    int
	SumInputs  int64
	MeanInputs float64
	VarInputs  float64

	MinSequence uint32
	RBFFlag     int

	NOutputs        int
	SumOutputs      int64
	MaxOutput       int64
	SecondMaxOutput int64
	StdOutputs      float64
	Q25Outputs      float64
	Q75Outputs      float64
	DustOutputCount int

	Fee           int64
	FeeRateSize   float64
	FeeRateWeight float64

	PctOutputsP2WPKH float64

	Sigops                int64
	SigopsPerInput        float64
	SigopsPerOutput       float64
	SigopsDensity         float64
	RelativeSigComplexity float64

	Txid               string
	ChangeAddress      string
	ChangePosition     int
	ChangeAddrIsLegacy int
	ChangeAddrType     string
}

// FromTx extracts the feature row for one archived transaction. ok is false
// when the transaction is filtered out: a single output, an op_return
// output, or a change address that is not uniquely locatable.
func FromTx(tx archive.ArchivedTx) (Features, bool) {
	if len(tx.Vout) <= 1 {
		return Features{}, false
	}
	for _, v := range tx.Vout {
		if v.ScriptpubkeyType == "op_return" {
			return Features{}, false
		}
	}

	pos, ok := changePosition(tx)
	if !ok {
		return Features{}, false
	}

	f := Features{
		Txid:           tx.Txid,
		ChangeAddress:  tx.ChangeAddress,
		ChangePosition: pos,
	}

	f.Locktime = tx.Locktime
	lock := int64(tx.Locktime)
	if lock >= timestampLockThreshold {
		f.IsTimestampLock = 1
		f.SecondsUntilUnlock = lock - tx.Status.BlockTime
		if tx.Status.BlockTime >= lock {
			f.AlreadyUnlocked = 1
		}
	} else {
		f.BlocksUntilUnlock = lock - tx.Status.BlockHeight
		if tx.Status.BlockHeight >= lock {
			f.AlreadyUnlocked = 1
		}
	}

	var valsIn []float64
	minSeq := uint32(math.MaxUint32)
	for _, vin := range tx.Vin {
		if vin.Prevout != nil {
			valsIn = append(valsIn, float64(vin.Prevout.Value))
			f.SumInputs += vin.Prevout.Value
		}
		if vin.Sequence < minSeq {
			minSeq = vin.Sequence
		}
		if vin.Sequence < esplora.RBFSequenceThreshold {
			f.RBFFlag = 1
		}
	}
	f.NInputs = len(valsIn)
	if len(tx.Vin) == 0 {
		minSeq = 0
	}
	f.MinSequence = minSeq
	f.MeanInputs = mean(valsIn)
	f.VarInputs = variance(valsIn)

	valsOut := make([]float64, 0, len(tx.Vout))
	p2wpkh := 0
	for _, vout := range tx.Vout {
		valsOut = append(valsOut, float64(vout.Value))
		f.SumOutputs += vout.Value
		if vout.Value < dustThreshold {
			f.DustOutputCount++
		}
		if vout.ScriptpubkeyType == "v0_p2wpkh" {
			p2wpkh++
		}
	}
	f.NOutputs = len(valsOut)

	sorted := append([]float64(nil), valsOut...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	f.MaxOutput = int64(sorted[0])
	if len(sorted) > 1 {
		f.SecondMaxOutput = int64(sorted[1])
	}
	f.StdOutputs = math.Sqrt(variance(valsOut))
	f.Q25Outputs = quantile(valsOut, 0.25)
	f.Q75Outputs = quantile(valsOut, 0.75)

	f.Fee = tx.Fee
	if tx.Size > 0 {
		f.FeeRateSize = float64(tx.Fee) / float64(tx.Size)
	}
	if tx.Weight > 0 {
		f.FeeRateWeight = float64(tx.Fee) / float64(tx.Weight)
	}

	f.PctOutputsP2WPKH = float64(p2wpkh) / float64(f.NOutputs)

	f.Sigops = tx.Sigops
	if f.NInputs > 0 {
		f.SigopsPerInput = float64(tx.Sigops) / float64(f.NInputs)
	}
	f.SigopsPerOutput = float64(tx.Sigops) / float64(f.NOutputs)
	if tx.Weight > 0 {
		f.SigopsDensity = float64(tx.Sigops) / float64(tx.Weight)
	}
	if f.PctOutputsP2WPKH > 0 {
		f.RelativeSigComplexity = f.SigopsPerInput / f.PctOutputsP2WPKH
	}

	changeType := "unknown"
	for _, vout := range tx.Vout {
		if vout.ScriptpubkeyAddress != nil && *vout.ScriptpubkeyAddress == tx.ChangeAddress {
			changeType = vout.ScriptpubkeyType
			break
		}
	}
	if changeType == "p2pkh" || changeType == "p2sh" {
		f.ChangeAddrIsLegacy = 1
	}
	f.ChangeAddrType = readableScriptType(changeType)

	return f, true
}

// ExtractAll extracts rows for every archived transaction that survives the
// filters and assigns row numbers. With onePerChange, only the first row
// per change address is kept.
func ExtractAll(txs []archive.ArchivedTx, onePerChange bool) []Features {
	var rows []Features
	seen := make(map[string]struct{})

	for _, tx := range txs {
		f, ok := FromTx(tx)
		if !ok {
			continue
		}
		if onePerChange {
			if _, dup := seen[f.ChangeAddress]; dup {
				continue
			}
			seen[f.ChangeAddress] = struct{}{}
		}
		f.RowNumber = len(rows) + 1
		rows = append(rows, f)
	}

	return rows
}

// changePosition encodes where the change output sits: 1 first, 2 last,
// 0 in between for three or more outputs. ok is false when the change
// address does not appear exactly once among the output addresses.
func changePosition(tx archive.ArchivedTx) (int, bool) {
	count := 0
	for _, vout := range tx.Vout {
		if vout.ScriptpubkeyAddress != nil && *vout.ScriptpubkeyAddress == tx.ChangeAddress {
			count++
		}
	}
	if count != 1 {
		return 0, false
	}

	first := tx.Vout[0].ScriptpubkeyAddress
	last := tx.Vout[len(tx.Vout)-1].ScriptpubkeyAddress
	switch {
	case first != nil && *first == tx.ChangeAddress:
		return 1, true
	case last != nil && *last == tx.ChangeAddress:
		return 2, true
	case len(tx.Vout) > 2:
		return 0, true
	}
	return 0, false
}

func readableScriptType(t string) string {
	switch t {
	case "p2pkh":
		return "P2PKH"
	case "p2sh":
		return "P2SH"
	case "v0_p2wpkh":
		return "P2WPKH"
	case "v0_p2wsh":
		return "P2WSH"
	case "v1_p2tr":
		return "P2TR"
	case "unknown":
		return "unknown"
	}
	return strings.ToUpper(t)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance is the population variance.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

// quantile uses linear interpolation between closest ranks.
func quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
