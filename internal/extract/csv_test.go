package extract_test

import (
	"bytes"
	"encoding/csv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rbftrack/internal/archive"
	"rbftrack/internal/extract"
)

var _ = Describe("WriteCSV", func() {
	It("writes a header plus one record per row", func() {
		rows := extract.ExtractAll([]archive.ArchivedTx{archivedTx()}, false)
		Expect(rows).To(HaveLen(1))

		var buf bytes.Buffer
		Expect(extract.WriteCSV(&buf, rows)).To(Succeed())

		records, err := csv.NewReader(&buf).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))

		header := records[0]
		Expect(header[0]).To(Equal("row_number"))
		Expect(header).To(HaveLen(34))
		Expect(header[len(header)-1]).To(Equal("change_addr_type"))

		record := records[1]
		Expect(record).To(HaveLen(34))
		Expect(record[0]).To(Equal("1"))
		Expect(record[len(record)-5]).To(Equal("tx1"))
		Expect(record[len(record)-4]).To(Equal("chg"))
		Expect(record[len(record)-1]).To(Equal("P2PKH"))
	})
})
