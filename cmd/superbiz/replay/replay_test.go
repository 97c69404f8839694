package replaycmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	replaycmder "github.com/papercomputeco/superbiz/cmd/superbiz/replay"
)

const trace = "event: report\ndata: {\"type\":\"content\",\"data\":\"CPU 80%\"}\n\ndata: {\"type\":\"done\",\"data\":null}\n\n"

var _ = Describe("replay command", func() {
	run := func(args ...string) (string, error) {
		cmd := replaycmder.NewReplayCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	It("has serving flags with defaults", func() {
		cmd := replaycmder.NewReplayCmd()
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal("127.0.0.1:9900"))
		Expect(cmd.Flags().Lookup("prefix").DefValue).To(Equal("/api"))
		Expect(cmd.Flags().Lookup("chunk-size").DefValue).To(Equal("64"))
	})

	It("checks a trace in both grammars", func() {
		path := filepath.Join(GinkgoT().TempDir(), "t.sse")
		Expect(os.WriteFile(path, []byte(trace), 0o600)).To(Succeed())

		out, err := run(path, "--check", "--chunk-size", "5", "--timeout", "5s")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("plain"))
		Expect(out).To(ContainSubstring("named-event"))
		Expect(out).To(ContainSubstring("completed"))
		Expect(out).To(ContainSubstring(`"CPU 80%"`))
		Expect(out).To(ContainSubstring("report"))
	})

	It("fails for a missing trace", func() {
		_, err := run(filepath.Join(GinkgoT().TempDir(), "missing.sse"), "--check")
		Expect(err).To(MatchError(ContainSubstring("reading trace")))
	})
})
