package aiopscmder_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	aiopscmder "github.com/papercomputeco/superbiz/cmd/superbiz/aiops"
	"github.com/papercomputeco/superbiz/pkg/client"
)

var _ = Describe("NewAIOpsCmd", func() {
	It("has the --no-stream and --timeout flags", func() {
		cmd := aiopscmder.NewAIOpsCmd()
		Expect(cmd.Flags().Lookup("no-stream")).NotTo(BeNil())

		flag := cmd.Flags().Lookup("timeout")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("4m0s"))
	})
})

var _ = Describe("aiops execution", func() {
	var (
		server   *httptest.Server
		problems []string
		failing  bool
	)

	BeforeEach(func() {
		problems = nil
		failing = false

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/ai_ops_stream", func(w http.ResponseWriter, r *http.Request) {
			var req client.AIOpsRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			problems = append(problems, req.Problem)

			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: analysis\ndata: {\"type\":\"content\",\"data\":\"## Findings\\n\"}\n\n")
			if failing {
				fmt.Fprint(w, "data: {\"type\":\"error\",\"data\":\"alert source unreachable\"}\n\n")
				return
			}
			fmt.Fprint(w, "data: {\"type\":\"content\",\"data\":\"disk 95%\"}\n\n")
			fmt.Fprint(w, "event: report\ndata: {\"type\":\"done\",\"data\":null}\n\n")
		})
		mux.HandleFunc("POST /api/ai_ops", func(w http.ResponseWriter, r *http.Request) {
			var req client.AIOpsRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			problems = append(problems, req.Problem)

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"report":"# Report\nall green"}`)
		})
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)
	})

	run := func(args ...string) (string, error) {
		cmd := aiopscmder.NewAIOpsCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--api-base", server.URL+"/api"))
		err := cmd.Execute()
		return out.String(), err
	}

	It("streams the report for the default problem", func() {
		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("## Findings\ndisk 95%"))
		Expect(problems).To(Equal([]string{client.DefaultProblem}))
	})

	It("sends the given problem", func() {
		_, err := run("checkout", "latency")
		Expect(err).NotTo(HaveOccurred())
		Expect(problems).To(Equal([]string{"checkout latency"}))
	})

	It("waits for the whole report with --no-stream", func() {
		out, err := run("--no-stream")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("all green"))
	})

	It("fails when the analysis reports an error", func() {
		failing = true
		out, err := run()
		Expect(err).To(MatchError(ContainSubstring("alert source unreachable")))
		Expect(out).To(ContainSubstring("## Findings"))
	})
})
