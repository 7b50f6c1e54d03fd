package detect_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rbftrack/internal/detect"
)

func addr(s string) *string {
	return &s
}

var _ = Describe("FindChange", func() {
	var (
		orig map[uint32]detect.Output
		repl map[uint32]detect.Output

		change detect.Change
		ok     bool
	)

	BeforeEach(func() {
		orig = map[uint32]detect.Output{
			0: {Address: addr("A"), Value: 1000},
			1: {Address: addr("B"), Value: 500},
		}
	})

	JustBeforeEach(func() {
		change, ok = detect.FindChange(orig, repl)
	})

	When("exactly one output shrank", func() {
		BeforeEach(func() {
			repl = map[uint32]detect.Output{
				0: {Address: addr("A"), Value: 1000},
				1: {Address: addr("B"), Value: 480},
			}
		})

		It("identifies the change output and the diff", func() {
			Expect(ok).To(BeTrue())
			Expect(change.VoutIndex).To(Equal(uint32(1)))
			Expect(change.Address).To(Equal("B"))
			Expect(change.OldValue).To(Equal(int64(500)))
			Expect(change.NewValue).To(Equal(int64(480)))
			Expect(change.Diff).To(Equal(int64(20)))
		})
	})

	When("more than one output value differs", func() {
		BeforeEach(func() {
			repl = map[uint32]detect.Output{
				0: {Address: addr("A"), Value: 900},
				1: {Address: addr("B"), Value: 480},
			}
		})

		It("rejects", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the differing output grew", func() {
		BeforeEach(func() {
			repl = map[uint32]detect.Output{
				0: {Address: addr("A"), Value: 1000},
				1: {Address: addr("B"), Value: 520},
			}
		})

		It("rejects", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the differing output kept its value", func() {
		BeforeEach(func() {
			repl = map[uint32]detect.Output{
				0: {Address: addr("A"), Value: 1000},
				1: {Address: addr("B"), Value: 500},
			}
		})

		It("rejects because no output differs", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the output index sets differ", func() {
		BeforeEach(func() {
			repl = map[uint32]detect.Output{
				0: {Address: addr("A"), Value: 1000},
				1: {Address: addr("B"), Value: 480},
				2: {Address: addr("C"), Value: 10},
			}
		})

		It("rejects", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the same indices carry different addresses", func() {
		BeforeEach(func() {
			repl = map[uint32]detect.Output{
				0: {Address: addr("A"), Value: 1000},
				1: {Address: addr("X"), Value: 480},
			}
		})

		It("rejects", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the shrinking output has no address", func() {
		BeforeEach(func() {
			orig = map[uint32]detect.Output{
				0: {Address: addr("A"), Value: 1000},
				1: {Address: nil, Value: 500},
			}
			repl = map[uint32]detect.Output{
				0: {Address: addr("A"), Value: 1000},
				1: {Address: nil, Value: 480},
			}
		})

		It("rejects because the change cannot be attributed", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("an address is present on one side only", func() {
		BeforeEach(func() {
			repl = map[uint32]detect.Output{
				0: {Address: addr("A"), Value: 1000},
				1: {Address: nil, Value: 480},
			}
		})

		It("rejects on the address mismatch", func() {
			Expect(ok).To(BeFalse())
		})
	})
})
