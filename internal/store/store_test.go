package store_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rbftrack/internal/store"
)

func addr(s string) *string {
	return &s
}

var _ = Describe("Store", func() {
	var (
		st  *store.Store
		now time.Time
	)

	BeforeEach(func() {
		var err error
		st, err = store.Open("")
		Expect(err).NotTo(HaveOccurred())
		now = time.Now().UTC()
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
	})

	Describe("InsertTransaction", func() {
		It("ignores a duplicate txid", func() {
			tx := store.Transaction{Txid: "a", FetchedAt: now, Fee: 100, Vsize: 200}
			Expect(st.InsertTransaction(tx)).To(Succeed())

			tx.Fee = 999
			Expect(st.InsertTransaction(tx)).To(Succeed())
		})
	})

	Describe("InsertReplacement", func() {
		var repl store.Replacement

		BeforeEach(func() {
			repl = store.Replacement{
				OrigTxid:        "orig",
				NewTxid:         "new",
				ChangeAddress:   "B",
				ChangeVoutIndex: 1,
				OldValue:        500,
				NewValue:        480,
				Diff:            20,
				DetectedAt:      now,
			}
		})

		It("is idempotent on the composite key", func() {
			Expect(st.InsertReplacement(repl)).To(Succeed())
			Expect(st.InsertReplacement(repl)).To(Succeed())

			rows, err := st.RecentReplacements(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Diff).To(Equal(int64(20)))
		})
	})

	Describe("InsertChangeInputs", func() {
		It("is idempotent per mapping row", func() {
			rows := []store.ChangeInput{
				{
					OrigTxid:        "orig",
					NewTxid:         "new",
					ChangeAddress:   "B",
					ChangeVoutIndex: 1,
					InputAddress:    "in1",
					DetectedAt:      now,
				},
			}
			Expect(st.InsertChangeInputs(rows)).To(Succeed())
			Expect(st.InsertChangeInputs(rows)).To(Succeed())

			stats, err := st.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalMappings).To(Equal(int64(1)))
		})
	})

	Describe("RBFSpenders", func() {
		BeforeEach(func() {
			Expect(st.InsertInputs([]store.TxInput{
				{Txid: "rbf1", PrevTxid: "p", PrevVout: 0, Sequence: 1},
				{Txid: "plain", PrevTxid: "p", PrevVout: 0, Sequence: 0xFFFFFFFF},
				{Txid: "rbf2", PrevTxid: "p", PrevVout: 1, Sequence: 1},
			})).To(Succeed())
			Expect(st.InsertRBFCandidate(store.RBFCandidate{Txid: "rbf1", AddedAt: now})).To(Succeed())
			Expect(st.InsertRBFCandidate(store.RBFCandidate{Txid: "rbf2", AddedAt: now})).To(Succeed())
		})

		It("returns only RBF candidates spending the outpoint", func() {
			txids, err := st.RBFSpenders("p", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(txids).To(ConsistOf("rbf1"))
		})

		It("returns nothing for an unseen outpoint", func() {
			txids, err := st.RBFSpenders("p", 9)
			Expect(err).NotTo(HaveOccurred())
			Expect(txids).To(BeEmpty())
		})
	})

	Describe("Outputs", func() {
		BeforeEach(func() {
			Expect(st.InsertOutputs([]store.TxOutput{
				{Txid: "t", VoutIndex: 0, Address: addr("A"), Value: 1000},
				{Txid: "t", VoutIndex: 1, Address: nil, Value: 500},
			})).To(Succeed())
		})

		It("returns all persisted outputs of the txid", func() {
			rows, err := st.Outputs("t")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
		})
	})

	Describe("InputAddresses", func() {
		BeforeEach(func() {
			Expect(st.InsertInputs([]store.TxInput{
				{Txid: "t", PrevTxid: "p", PrevVout: 0, Address: addr("in1"), Sequence: 1},
				{Txid: "t", PrevTxid: "p", PrevVout: 1, Address: addr("in1"), Sequence: 1},
				{Txid: "t", PrevTxid: "p", PrevVout: 2, Address: addr("in2"), Sequence: 1},
				{Txid: "t", PrevTxid: "p", PrevVout: 3, Address: nil, Sequence: 1},
			})).To(Succeed())
		})

		It("returns distinct addresses and drops null ones", func() {
			addrs, err := st.InputAddresses("t")
			Expect(err).NotTo(HaveOccurred())
			Expect(addrs).To(ConsistOf("in1", "in2"))
		})
	})

	Describe("query surface", func() {
		BeforeEach(func() {
			earlier := now.Add(-time.Hour)

			Expect(st.InsertReplacement(store.Replacement{
				OrigTxid: "o1", NewTxid: "n1", ChangeAddress: "B", ChangeVoutIndex: 1,
				OldValue: 500, NewValue: 480, Diff: 20, DetectedAt: earlier,
			})).To(Succeed())
			Expect(st.InsertReplacement(store.Replacement{
				OrigTxid: "o2", NewTxid: "n2", ChangeAddress: "B", ChangeVoutIndex: 0,
				OldValue: 900, NewValue: 850, Diff: 50, DetectedAt: now,
			})).To(Succeed())

			Expect(st.InsertChangeInputs([]store.ChangeInput{
				{OrigTxid: "o1", NewTxid: "n1", ChangeAddress: "B", ChangeVoutIndex: 1, InputAddress: "in1", DetectedAt: earlier},
				{OrigTxid: "o1", NewTxid: "n1", ChangeAddress: "B", ChangeVoutIndex: 1, InputAddress: "in2", DetectedAt: earlier},
				{OrigTxid: "o2", NewTxid: "n2", ChangeAddress: "B", ChangeVoutIndex: 0, InputAddress: "in3", DetectedAt: now},
			})).To(Succeed())
		})

		It("lists recent replacements newest first", func() {
			rows, err := st.RecentReplacements(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].NewTxid).To(Equal("n2"))
		})

		It("lists all input addresses for a change address", func() {
			addrs, err := st.InputsForChange("B", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(addrs).To(ConsistOf("in1", "in2", "in3"))
		})

		It("restricts to the latest event when asked", func() {
			addrs, err := st.InputsForChange("B", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(addrs).To(ConsistOf("in3"))
		})

		It("returns ErrNoRows for an unknown change address in latest mode", func() {
			_, err := st.InputsForChange("nope", true)
			Expect(err).To(MatchError(store.ErrNoRows))
		})

		It("lists change addresses for an input address", func() {
			addrs, err := st.ChangesForInput("in1", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(addrs).To(ConsistOf("B"))
		})

		It("computes aggregate statistics", func() {
			stats, err := st.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalReplacements).To(Equal(int64(2)))
			Expect(stats.UniqueChangeAddresses).To(Equal(int64(1)))
			Expect(stats.MultiEventChangeAddresses).To(Equal(int64(1)))
			Expect(stats.TotalMappings).To(Equal(int64(3)))
			Expect(stats.UniqueInputAddresses).To(Equal(int64(3)))
		})

		It("lists distinct archive targets", func() {
			targets, err := st.ArchiveTargets()
			Expect(err).NotTo(HaveOccurred())
			Expect(targets).To(ConsistOf(
				store.ArchiveTarget{NewTxid: "n1", ChangeAddress: "B"},
				store.ArchiveTarget{NewTxid: "n2", ChangeAddress: "B"},
			))
		})
	})
})
