package archive_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"rbftrack/internal/archive"
	"rbftrack/internal/esplora"
	"rbftrack/internal/store"
)

type fetcherStub struct {
	txs map[string]*esplora.Tx
}

func (s *fetcherStub) Tx(ctx context.Context, txid string) (*esplora.Tx, error) {
	tx, ok := s.txs[txid]
	if !ok {
		return nil, esplora.ErrNotFound
	}
	return tx, nil
}

var _ = Describe("Exporter", func() {
	var (
		st       *store.Store
		stub     *fetcherStub
		exporter *archive.Exporter
		outFile  string
	)

	addr := func(s string) *string {
		return &s
	}

	BeforeEach(func() {
		var err error
		st, err = store.Open("")
		Expect(err).NotTo(HaveOccurred())

		now := time.Now().UTC()
		Expect(st.InsertChangeInputs([]store.ChangeInput{
			{OrigTxid: "o1", NewTxid: "n1", ChangeAddress: "chg1",
				ChangeVoutIndex: 1, InputAddress: "in1", DetectedAt: now},
			{OrigTxid: "o1", NewTxid: "n1", ChangeAddress: "chg1",
				ChangeVoutIndex: 1, InputAddress: "in2", DetectedAt: now},
			{OrigTxid: "o2", NewTxid: "gone", ChangeAddress: "chg2",
				ChangeVoutIndex: 0, InputAddress: "in3", DetectedAt: now},
		})).To(Succeed())

		stub = &fetcherStub{txs: map[string]*esplora.Tx{
			"n1": {
				Txid:  "n1",
				Fee:   100,
				Vsize: 150,
				Vout: []esplora.Vout{
					{ScriptpubkeyAddress: addr("dest"), Value: 8000, ScriptpubkeyType: "v0_p2wpkh"},
					{ScriptpubkeyAddress: addr("chg1"), Value: 2000, ScriptpubkeyType: "v0_p2wpkh"},
				},
			},
		}}

		exporter = archive.NewExporter(zap.NewNop().Sugar(), st, stub)
		outFile = filepath.Join(GinkgoT().TempDir(), "archive.out")
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
	})

	It("writes the fetched transactions as JSON and skips missing ones", func() {
		Expect(exporter.Run(context.Background(), outFile, "json")).To(Succeed())

		data, err := os.ReadFile(outFile)
		Expect(err).NotTo(HaveOccurred())

		var records []archive.ArchivedTx
		Expect(json.Unmarshal(data, &records)).To(Succeed())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Txid).To(Equal("n1"))
		Expect(records[0].ChangeAddress).To(Equal("chg1"))
		Expect(records[0].Vout).To(HaveLen(2))
	})

	It("writes CSV with vin and vout embedded as JSON", func() {
		Expect(exporter.Run(context.Background(), outFile, "csv")).To(Succeed())

		f, err := os.Open(outFile)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		rows, err := csv.NewReader(f).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0][0]).To(Equal("txid"))

		record := rows[1]
		Expect(record[0]).To(Equal("n1"))
		Expect(record[len(record)-1]).To(Equal("chg1"))

		var vout []esplora.Vout
		Expect(json.Unmarshal([]byte(record[len(record)-2]), &vout)).To(Succeed())
		Expect(vout).To(HaveLen(2))
	})

	It("rejects an unknown format", func() {
		err := exporter.Run(context.Background(), outFile, "xml")
		Expect(err).To(MatchError(ContainSubstring("unsupported format")))
	})
})
