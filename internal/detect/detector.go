// Package detect implements the structural diff that decides whether one
// transaction is a fee-bump replacement of another and, if so, which output
// is the shrunk change output.
package detect

// Output is one transaction output as seen by the detector. Address is nil
// when the output has no extractable address.
type Output struct {
	Address *string
	Value   int64
}

// Change describes the single output that was reduced to fund a fee bump.
type Change struct {
	VoutIndex uint32
	Address   string
	OldValue  int64
	NewValue  int64
	Diff      int64
}

// FindChange compares the output sets of an original transaction and its
// suspected replacement. It accepts only the strict one-output-shrink case:
//
//   - both transactions expose exactly the same output indices,
//   - every index carries the same address in both,
//   - exactly one index differs in value,
//   - and that value strictly decreased.
//
// Anything else returns ok=false: a restructured transaction cannot be
// safely attributed to a single change output. Rejections are policy
// outcomes, not errors.
func FindChange(orig, repl map[uint32]Output) (Change, bool) {
	if len(orig) != len(repl) {
		return Change{}, false
	}

	var diffIdx []uint32
	for idx, o := range orig {
		n, ok := repl[idx]
		if !ok {
			return Change{}, false
		}
		if !sameAddress(o.Address, n.Address) {
			return Change{}, false
		}
		if o.Value != n.Value {
			diffIdx = append(diffIdx, idx)
		}
	}

	if len(diffIdx) != 1 {
		return Change{}, false
	}

	idx := diffIdx[0]
	oldVal, newVal := orig[idx].Value, repl[idx].Value
	if newVal >= oldVal {
		return Change{}, false
	}

	// An unaddressable output cannot be linked to anything downstream.
	if orig[idx].Address == nil {
		return Change{}, false
	}

	return Change{
		VoutIndex: idx,
		Address:   *orig[idx].Address,
		OldValue:  oldVal,
		NewValue:  newVal,
		Diff:      oldVal - newVal,
	}, true
}

func sameAddress(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
