package client_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/superbiz/pkg/client"
	"github.com/papercomputeco/superbiz/pkg/upload"
)

var _ = Describe("Upload", func() {
	var (
		server   *httptest.Server
		c        *client.Client
		dir      string
		calls    atomic.Int32
		received string
		name     string
		status   string
	)

	BeforeEach(func() {
		calls.Store(0)
		status = "success"
		dir = GinkgoT().TempDir()

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			f, hdr, err := r.FormFile("file")
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			data, err := io.ReadAll(f)
			Expect(err).NotTo(HaveOccurred())
			received, name = string(data), hdr.Filename

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"filename":"` + hdr.Filename + `","chunks":3,"status":"` + status + `"}`))
		})
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)

		c = client.New(server.URL+"/api", client.WithUploadRules(upload.Rules{
			MaxBytes:   16,
			Extensions: []string{".md", ".txt"},
		}))
	})

	write := func(file, content string) string {
		path := filepath.Join(dir, file)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	It("sends the document as the multipart file field", func() {
		resp, err := c.Upload(context.Background(), write("runbook.md", "# Runbook"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Filename).To(Equal("runbook.md"))
		Expect(resp.Chunks).To(Equal(3))
		Expect(received).To(Equal("# Runbook"))
		Expect(name).To(Equal("runbook.md"))
	})

	It("rejects a disallowed extension without calling the backend", func() {
		_, err := c.Upload(context.Background(), write("scan.pdf", "x"))
		Expect(upload.IsValidationError(err)).To(BeTrue())
		Expect(calls.Load()).To(BeZero())
	})

	It("rejects an oversized file without calling the backend", func() {
		_, err := c.Upload(context.Background(), write("big.txt", "0123456789abcdefXYZ"))
		Expect(upload.IsValidationError(err)).To(BeTrue())
		Expect(calls.Load()).To(BeZero())
	})

	It("reports a missing file", func() {
		_, err := c.Upload(context.Background(), filepath.Join(dir, "missing.md"))
		Expect(err).To(HaveOccurred())
	})

	It("reports a non-success status", func() {
		status = "failed"
		resp, err := c.Upload(context.Background(), write("a.md", "a"))
		Expect(err).To(HaveOccurred())
		Expect(resp.Status).To(Equal("failed"))
	})
})
