package upload_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/pdfannotate/internal/upload"
)

var pdfHeader = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n")

var _ = Describe("Accept", func() {
	It("accepts a PDF by extension and content", func() {
		src, err := upload.Accept("/tmp/notes/Report.PDF", pdfHeader)
		Expect(err).NotTo(HaveOccurred())
		Expect(src.Name).To(Equal("Report.PDF"))
		Expect(src.Data).To(Equal(pdfHeader))
	})

	DescribeTable("rejects anything else",
		func(name string, data []byte) {
			_, err := upload.Accept(name, data)
			Expect(err).To(MatchError(upload.ErrInvalidUpload))
		},
		Entry("wrong extension", "notes.txt", pdfHeader),
		Entry("no extension", "notes", pdfHeader),
		Entry("empty file", "notes.pdf", []byte{}),
		Entry("plain text renamed", "notes.pdf", []byte("just some text")),
		Entry("png renamed", "notes.pdf", []byte("\x89PNG\r\n\x1a\n0000")),
	)
})

var _ = Describe("FromFile", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "upload-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("reads and validates the file", func() {
		path := filepath.Join(dir, "doc.pdf")
		Expect(os.WriteFile(path, pdfHeader, 0644)).To(Succeed())

		src, err := upload.FromFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(src.Name).To(Equal("doc.pdf"))
	})

	It("reports missing files without marking them invalid", func() {
		_, err := upload.FromFile(filepath.Join(dir, "missing.pdf"))
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(upload.ErrInvalidUpload))
	})
})
