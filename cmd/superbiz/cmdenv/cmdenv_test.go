package cmdenv_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/superbiz/cmd/superbiz/cmdenv"
	"github.com/papercomputeco/superbiz/pkg/config"
)

var _ = Describe("Env", func() {
	var (
		configDir string
		env       *cmdenv.Env
	)

	setup := func(args ...string) *cmdenv.Env {
		var (
			apiBase  string
			traceDir string
			got      *cmdenv.Env
		)

		cmd := &cobra.Command{
			Use: "probe",
			RunE: func(cmd *cobra.Command, _ []string) error {
				var err error
				got, err = cmdenv.Setup(cmd, config.FlagAPIBase, config.FlagTraceDir)
				return err
			},
		}
		cmd.Flags().String("config-dir", "", "")
		cmd.Flags().Bool("debug", false, "")
		config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPIBase, &apiBase)
		config.AddStringFlag(cmd, config.ClientFlags, config.FlagTraceDir, &traceDir)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--config-dir", configDir))

		Expect(cmd.Execute()).To(Succeed())
		return got
	}

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		env = setup()
	})

	It("resolves flags over defaults", func() {
		env = setup("--api-base", "http://backend:1/api/", "--debug")
		Expect(env.Client.BaseURL()).To(Equal("http://backend:1/api"))
		Expect(env.Debug).To(BeTrue())
		Expect(env.ConfigDir).To(Equal(configDir))
	})

	It("writes JSON debug logs into the trace dir", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "traces")
		env = setup("--trace-dir", dir)
		env.Logger.Debug("probe line", "answer", 42)
		Expect(env.Close()).To(Succeed())
		Expect(env.Close()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(dir, "superbiz.log"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"probe line"`))
		Expect(string(data)).To(ContainSubstring(`"answer":42`))
	})

	It("has nothing to close without a trace dir", func() {
		Expect(env.Close()).To(Succeed())
	})

	Describe("SessionID", func() {
		It("creates and stores a session when none exists", func() {
			id, err := env.SessionID("", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())

			stored, err := env.StoredSession()
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(Equal(id))
		})

		It("reuses the stored session", func() {
			first, err := env.SessionID("", false)
			Expect(err).NotTo(HaveOccurred())

			second, err := env.SessionID("", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("starts fresh on request", func() {
			first, err := env.SessionID("", false)
			Expect(err).NotTo(HaveOccurred())

			second, err := env.SessionID("", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).NotTo(Equal(first))
		})

		It("prefers an explicit id and validates it", func() {
			id, err := env.SessionID("team-ops", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("team-ops"))

			_, err = env.SessionID("bad/id", false)
			Expect(err).To(HaveOccurred())
		})

		It("forgets the stored session", func() {
			_, err := env.SessionID("", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(env.ForgetSession()).To(Succeed())

			stored, err := env.StoredSession()
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(BeEmpty())
		})
	})

	It("opens history in the config dir", func() {
		store := env.OpenHistory()
		Expect(store).NotTo(BeNil())
		Expect(store.Close()).To(Succeed())
	})
})
