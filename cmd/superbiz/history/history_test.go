package historycmder_test

import (
	"bytes"
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	superbizcmder "github.com/papercomputeco/superbiz/cmd/superbiz"
	"github.com/papercomputeco/superbiz/pkg/config"
	"github.com/papercomputeco/superbiz/pkg/history"
)

var _ = Describe("history command", func() {
	var configDir string

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()

		store, err := history.Open(filepath.Join(configDir, config.HistoryFile))
		Expect(err).NotTo(HaveOccurred())
		defer store.Close()

		ctx := context.Background()
		Expect(store.Append(ctx, "conv-a",
			history.Message{Role: history.RoleUser, Content: "Why is the disk full?"},
			history.Message{Role: history.RoleAssistant, Content: "Old logs in /var/log."},
		)).To(Succeed())
		Expect(store.Append(ctx, "conv-b",
			history.Message{Role: history.RoleUser, Content: "Restart policy?"},
		)).To(Succeed())
	})

	run := func(args ...string) (string, error) {
		cmd := superbizcmder.NewSuperbizCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--config-dir", configDir))
		err := cmd.Execute()
		return out.String(), err
	}

	It("lists conversations", func() {
		out, err := run("history", "list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("conv-a"))
		Expect(out).To(ContainSubstring("Why is the disk full?"))
		Expect(out).To(ContainSubstring("conv-b"))
	})

	It("shows one conversation", func() {
		out, err := run("history", "show", "conv-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Why is the disk full?"))
		Expect(out).To(ContainSubstring("Old logs in /var/log."))
	})

	It("reports an unknown conversation", func() {
		_, err := run("history", "show", "nope")
		Expect(err).To(MatchError(ContainSubstring("conversation not found")))
	})

	It("deletes a conversation", func() {
		_, err := run("history", "delete", "conv-a")
		Expect(err).NotTo(HaveOccurred())

		out, err := run("history", "list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).NotTo(ContainSubstring("conv-a"))
	})

	It("clears every conversation", func() {
		out, err := run("history", "clear")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Deleted 2 conversations"))

		out, err = run("history", "list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No conversations recorded yet."))
	})

	It("reads another database with --history-sqlite", func() {
		other := filepath.Join(GinkgoT().TempDir(), "other.db")
		out, err := run("history", "list", "--history-sqlite", other)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No conversations recorded yet."))
	})

	It("refuses to run when history is disabled", func() {
		_, err := run("config", "set", "history.enabled", "false")
		Expect(err).NotTo(HaveOccurred())

		_, err = run("history", "list")
		Expect(err).To(MatchError(ContainSubstring("disabled")))
	})
})
