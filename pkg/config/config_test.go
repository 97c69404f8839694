package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/superbiz/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeConfig := func(data string) {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			writeConfig(`version = 0

[client]
api_base = "http://backend:9900/api/"
mode = "quick"

[timeouts]
chat = "30s"
chat_stream = "5m"
upload = "2m"
aiops = "10m"

[upload]
max_bytes = 1024
extensions = [".txt"]

[history]
sqlite_path = "/tmp/superbiz.db"
enabled = false

[trace]
dir = "/tmp/traces"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Client.APIBase).To(Equal("http://backend:9900/api"))
			Expect(cfg.Client.Mode).To(Equal(config.ModeQuick))
			Expect(cfg.Timeouts.Chat.Std()).To(Equal(30 * time.Second))
			Expect(cfg.Timeouts.ChatStream.Std()).To(Equal(5 * time.Minute))
			Expect(cfg.Timeouts.Upload.Std()).To(Equal(2 * time.Minute))
			Expect(cfg.Timeouts.AIOps.Std()).To(Equal(10 * time.Minute))
			Expect(cfg.Upload.MaxBytes).To(Equal(int64(1024)))
			Expect(cfg.Upload.Extensions).To(Equal([]string{".txt"}))
			Expect(cfg.History.SQLitePath).To(Equal("/tmp/superbiz.db"))
			Expect(cfg.History.Enabled).To(BeFalse())
			Expect(cfg.Trace.Dir).To(Equal("/tmp/traces"))
		})

		It("fills in defaults for unset fields in a partial config", func() {
			writeConfig(`[client]
mode = "quick"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Client.Mode).To(Equal(config.ModeQuick))
			Expect(cfg.Client.APIBase).To(Equal(defaults.Client.APIBase))
			Expect(cfg.Timeouts).To(Equal(defaults.Timeouts))
			Expect(cfg.Upload).To(Equal(defaults.Upload))
			Expect(cfg.History.Enabled).To(BeTrue())
		})

		It("returns error for malformed TOML", func() {
			writeConfig("not valid toml [[[")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(cfg).To(BeNil())
		})

		It("returns error for a malformed duration", func() {
			writeConfig(`[timeouts]
chat = "soon"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
		})

		It("returns error for an unknown chat mode", func() {
			writeConfig(`[client]
mode = "turbo"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid chat mode"))
		})

		It("returns error for unsupported config version", func() {
			writeConfig("version = 99\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
			Expect(cfg).To(BeNil())
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			cfg := config.NewDefaultConfig()
			cfg.Client.APIBase = "http://remote:9900/api"
			cfg.Timeouts.ChatStream = config.Duration(4 * time.Minute)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(cfg)).To(Succeed())

			Expect(filepath.Join(tmpDir, "config.toml")).To(BeAnExistingFile())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("keeps a disabled history across a round trip", func() {
			cfg := config.NewDefaultConfig()
			cfg.History.Enabled = false

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.History.Enabled).To(BeFalse())
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).NotTo(Succeed())
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("client.api_base", "http://remote:9900/api/")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Client.APIBase).To(Equal("http://remote:9900/api"))
		})

		It("sets a duration config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("timeouts.aiops", "6m")).To(Succeed())

			val, err := c.GetConfigValue("timeouts.aiops")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("6m0s"))
		})

		It("normalizes upload extensions", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("upload.extensions", "TXT, .md")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Upload.Extensions).To(Equal([]string{".txt", ".md"}))
		})

		DescribeTable("rejects invalid values",
			func(key, value string) {
				c, err := config.NewConfiger(tmpDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.SetConfigValue(key, value)).NotTo(Succeed())
			},
			Entry("unknown mode", "client.mode", "turbo"),
			Entry("bad duration", "timeouts.chat", "soon"),
			Entry("negative duration", "timeouts.chat", "-1s"),
			Entry("bad size", "upload.max_bytes", "big"),
			Entry("zero size", "upload.max_bytes", "0"),
			Entry("empty extensions", "upload.extensions", " , "),
			Entry("bad bool", "history.enabled", "sometimes"),
		)

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("proxy.provider", "value")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("preserves existing values when setting a new key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("client.mode", "quick")).To(Succeed())
			Expect(c.SetConfigValue("trace.dir", "/tmp/t")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Client.Mode).To(Equal("quick"))
			Expect(cfg.Trace.Dir).To(Equal("/tmp/t"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default values when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("client.api_base")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("http://localhost:9900/api"))

			val, err = c.GetConfigValue("timeouts.chat_stream")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("3m0s"))

			val, err = c.GetConfigValue("upload.extensions")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal(".txt,.md,.markdown"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("trace.dir")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})
	})

	Describe("HistoryPath", func() {
		It("defaults to history.db in the config directory", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			abs, err := filepath.Abs(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.HistoryPath(config.NewDefaultConfig())).To(Equal(filepath.Join(abs, "history.db")))
		})

		It("prefers the configured path", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.History.SQLitePath = "/var/lib/superbiz.db"
			Expect(c.HistoryPath(cfg)).To(Equal("/var/lib/superbiz.db"))
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("returns keys in stable order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys[0]).To(Equal("client.api_base"))
		Expect(keys).To(HaveLen(11))
		Expect(config.ValidConfigKeys()).To(Equal(keys))
	})

	It("contains only valid keys", func() {
		for _, k := range config.ValidConfigKeys() {
			Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
		}
		Expect(config.IsValidConfigKey("storage.sqlite_path")).To(BeFalse())
	})
})

var _ = Describe("PresetConfig", func() {
	It("returns the local preset", func() {
		cfg, err := config.PresetConfig("local")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Client.APIBase).To(Equal("http://localhost:9900/api"))
	})

	It("is case-insensitive", func() {
		cfg, err := config.PresetConfig("DEV")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Client.APIBase).To(Equal("http://localhost:8000/api"))
	})

	It("returns error for unknown preset", func() {
		_, err := config.PresetConfig("cloud")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown preset"))
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("returns empty config for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(*cfg).To(Equal(config.Config{}))
	})

	It("rejects unsupported config version", func() {
		_, err := config.ParseConfigTOML([]byte("version = 2\n"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("SplitExtensions", func() {
	It("lower-cases, trims and dots each entry", func() {
		Expect(config.SplitExtensions(" .TXT,md,, .Markdown ")).To(Equal([]string{".txt", ".md", ".markdown"}))
	})
})
