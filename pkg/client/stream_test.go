package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/superbiz/pkg/client"
	"github.com/papercomputeco/superbiz/pkg/stream"
)

// sseHandler writes each piece as its own flushed chunk.
func sseHandler(pieces ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, p := range pieces {
			_, _ = fmt.Fprint(w, p)
			flusher.Flush()
		}
	}
}

// holdOpen keeps a handler running until the client goes away or stop is
// closed. The request body is drained first; the server only notices a
// departed client once the body has been read.
func holdOpen(r *http.Request, stop <-chan struct{}) {
	_, _ = io.Copy(io.Discard, r.Body)
	select {
	case <-r.Context().Done():
	case <-stop:
	}
}

var _ = Describe("Client streams", func() {
	var (
		mux    *http.ServeMux
		server *httptest.Server
		c      *client.Client
		stop   chan struct{}
	)

	BeforeEach(func() {
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		stop = make(chan struct{})
		DeferCleanup(server.Close)
		DeferCleanup(func() { close(stop) })
		c = client.New(server.URL + "/api")
	})

	Describe("ChatStream", func() {
		It("assembles content split across chunks", func() {
			var got client.ChatRequest
			mux.HandleFunc("POST /api/chat_stream", func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				sseHandler(
					`data: {"type":"content","da`,
					"ta\":\"Hel\"}\n\ndata: {\"type\":\"content\",\"data\":\"lo \xe4\xb8",
					"\x96\xe7\x95\x8c\"}\n\n",
					`data: {"type": "done"}`+"\n\n",
				)(w, r)
			})

			var progress []string
			out, err := c.ChatStream(context.Background(), "s-1", "hi", func(text string) {
				progress = append(progress, text)
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Completed()).To(BeTrue())
			Expect(out.Text).To(Equal("Hello 世界"))
			Expect(progress).To(Equal([]string{"Hel", "Hello 世界", "Hello 世界"}))
			Expect(got.ID).To(Equal("s-1"))
			Expect(c.Streaming()).To(BeFalse())
		})

		It("completes when the server closes without done", func() {
			mux.HandleFunc("POST /api/chat_stream", sseHandler(`data: {"type":"content","data":"partial"}`))

			out, err := c.ChatStream(context.Background(), "s-1", "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Completed()).To(BeTrue())
			Expect(out.Text).To(Equal("partial"))
		})

		It("fails the outcome on a server error message", func() {
			mux.HandleFunc("POST /api/chat_stream", sseHandler(
				"data: {\"type\":\"content\",\"data\":\"a\"}\n\n",
				"data: {\"type\":\"error\",\"data\":\"boom\"}\n\n",
			))

			out, err := c.ChatStream(context.Background(), "s-1", "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Status).To(Equal(stream.StatusFailed))
			Expect(out.Reason()).To(Equal("boom"))
			Expect(out.Text).To(Equal("a"))
		})

		It("returns HTTPError for a non-2xx status before streaming", func() {
			mux.HandleFunc("POST /api/chat_stream", func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"detail":"bad gateway"}`, http.StatusBadGateway)
			})

			_, err := c.ChatStream(context.Background(), "s-1", "hi", nil)
			var he *client.HTTPError
			Expect(errors.As(err, &he)).To(BeTrue())
			Expect(he.StatusCode).To(Equal(http.StatusBadGateway))
			Expect(c.Streaming()).To(BeFalse())
		})

		It("times out a stream that stalls, keeping partial text", func() {
			mux.HandleFunc("POST /api/chat_stream", func(w http.ResponseWriter, r *http.Request) {
				sseHandler("data: {\"type\":\"content\",\"data\":\"slow\"}\n\n")(w, r)
				holdOpen(r, stop)
			})

			c = client.New(server.URL+"/api", client.WithTimeouts(client.Timeouts{ChatStream: 100 * time.Millisecond}))
			out, err := c.ChatStream(context.Background(), "s-1", "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Status).To(Equal(stream.StatusFailed))
			Expect(stream.IsTimeout(out.Err)).To(BeTrue())
			Expect(out.Text).To(Equal("slow"))
		})

		It("aborts when the caller cancels", func() {
			mux.HandleFunc("POST /api/chat_stream", func(w http.ResponseWriter, r *http.Request) {
				sseHandler("data: {\"type\":\"content\",\"data\":\"x\"}\n\n")(w, r)
				holdOpen(r, stop)
			})

			ctx, cancel := context.WithCancel(context.Background())
			time.AfterFunc(50*time.Millisecond, cancel)

			out, err := c.ChatStream(ctx, "s-1", "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(stream.IsAborted(out.Err)).To(BeTrue())
		})

		It("reports a dropped connection as a transport failure", func() {
			mux.HandleFunc("POST /api/chat_stream", func(w http.ResponseWriter, r *http.Request) {
				sseHandler("data: {\"type\":\"content\",\"data\":\"part\"}\n\n")(w, r)
				conn, _, err := w.(http.Hijacker).Hijack()
				if err != nil {
					return
				}
				_ = conn.Close()
			})

			out, err := c.ChatStream(context.Background(), "s-1", "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Status).To(Equal(stream.StatusFailed))
			Expect(stream.KindOf(out.Err)).To(Equal(stream.KindTransport))
			Expect(stream.IsAborted(out.Err)).To(BeFalse())
			Expect(out.Text).To(Equal("part"))
			Expect(c.Streaming()).To(BeFalse())
		})

		It("refuses a second concurrent stream", func() {
			started := make(chan struct{})
			release := make(chan struct{})
			mux.HandleFunc("POST /api/chat_stream", func(w http.ResponseWriter, r *http.Request) {
				sseHandler("data: {\"type\":\"content\",\"data\":\"x\"}\n\n")(w, r)
				close(started)
				holdOpen(r, release)
			})

			done := make(chan stream.Outcome)
			go func() {
				defer GinkgoRecover()
				out, err := c.ChatStream(context.Background(), "s-1", "first", nil)
				Expect(err).NotTo(HaveOccurred())
				done <- out
			}()

			Eventually(started).Should(BeClosed())
			Eventually(c.Streaming).Should(BeTrue())

			_, err := c.ChatStream(context.Background(), "s-1", "second", nil)
			Expect(err).To(MatchError(client.ErrStreamInFlight))

			close(release)
			Eventually(done).Should(Receive(HaveField("Text", "x")))
			Expect(c.Streaming()).To(BeFalse())
		})

		It("records the raw stream when a trace dir is set", func() {
			raw := "data: {\"type\":\"content\",\"data\":\"t\"}\n\ndata: {\"type\":\"done\",\"data\":null}\n\n"
			mux.HandleFunc("POST /api/chat_stream", sseHandler(raw))

			dir := GinkgoT().TempDir()
			c = client.New(server.URL+"/api", client.WithTraceDir(dir))

			out, err := c.ChatStream(context.Background(), "s-1", "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Completed()).To(BeTrue())

			files, err := filepath.Glob(filepath.Join(dir, "chat_stream-*.sse"))
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(1))

			data, err := os.ReadFile(files[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(raw))
		})
	})

	Describe("AIOpsStream", func() {
		It("assembles a named-event stream with concatenated objects", func() {
			var got client.AIOpsRequest
			mux.HandleFunc("POST /api/ai_ops_stream", func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				sseHandler(
					"id: 1\nevent: plan\n",
					"data: {\"type\":\"content\",\"data\":\"A\"}{\"type\":\"content\",\"data\":\"B\"}\n\n",
					"event: report\ndata: {\"type\":\"done\",\"data\":null}\n\n",
				)(w, r)
			})

			out, err := c.AIOpsStream(context.Background(), "", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Completed()).To(BeTrue())
			Expect(out.Text).To(Equal("AB"))
			Expect(out.LastEvent).To(Equal("report"))
			Expect(got.Problem).To(Equal(client.DefaultProblem))
		})

		It("appends non-JSON data lines verbatim", func() {
			mux.HandleFunc("POST /api/ai_ops_stream", sseHandler("data: plain text\n\n"))

			out, err := c.AIOpsStream(context.Background(), "disk alert", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Text).To(Equal("plain text"))
		})
	})
})
