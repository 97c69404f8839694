package sessioncmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	superbizcmder "github.com/papercomputeco/superbiz/cmd/superbiz"
	"github.com/papercomputeco/superbiz/pkg/dotdir"
)

var _ = Describe("session command", func() {
	var (
		server    *httptest.Server
		configDir string
		cleared   []string
	)

	BeforeEach(func() {
		cleared = nil
		configDir = GinkgoT().TempDir()

		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/chat/sessions", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"status":"success","count":2,"sessions":["active-1","other-2"]}`)
		})
		mux.HandleFunc("DELETE /api/chat/clear/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := r.PathValue("id")
			cleared = append(cleared, id)

			w.Header().Set("Content-Type", "application/json")
			if id == "ghost" {
				fmt.Fprint(w, `{"status":"not_found","message":"session not found"}`)
				return
			}
			fmt.Fprint(w, `{"status":"success","message":"history cleared"}`)
		})
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)
	})

	storeActive := func(id string) {
		Expect(dotdir.NewManager().SaveSession(&dotdir.SessionState{ID: id, UpdatedAt: time.Now()}, configDir)).To(Succeed())
	}

	run := func(args ...string) (string, error) {
		cmd := superbizcmder.NewSuperbizCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--config-dir", configDir))
		err := cmd.Execute()
		return out.String(), err
	}

	It("lists backend sessions", func() {
		storeActive("active-1")

		out, err := run("session", "list", "--api-base", server.URL+"/api")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("2 sessions"))
		Expect(out).To(ContainSubstring("active-1"))
		Expect(out).To(ContainSubstring("other-2"))
	})

	It("clears the active session by default", func() {
		storeActive("active-1")

		out, err := run("session", "clear", "--api-base", server.URL+"/api")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("history cleared"))
		Expect(cleared).To(Equal([]string{"active-1"}))
	})

	It("reports an unknown session without failing", func() {
		out, err := run("session", "clear", "ghost", "--api-base", server.URL+"/api")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("session not found"))
	})

	It("forgets the active session with --forget", func() {
		storeActive("active-1")

		_, err := run("session", "clear", "--forget", "--api-base", server.URL+"/api")
		Expect(err).NotTo(HaveOccurred())

		_, err = run("session", "current")
		Expect(err).To(MatchError("no active session"))
	})

	It("errors when there is nothing to clear", func() {
		_, err := run("session", "clear", "--api-base", server.URL+"/api")
		Expect(err).To(HaveOccurred())
		Expect(cleared).To(BeEmpty())
	})

	It("prints the active session", func() {
		storeActive("active-1")

		out, err := run("session", "current")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("active-1\n"))
	})
})
