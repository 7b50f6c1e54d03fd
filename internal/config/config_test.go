package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rbftrack/internal/config"
)

var _ = Describe("App", func() {
	Describe("NewApp", func() {
		When("no environment variables are set", func() {
			It("applies the defaults", func() {
				cfg, err := config.NewApp()
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.APIBaseURL).To(Equal("http://127.0.0.1:3000"))
				Expect(cfg.DBPath).To(BeEmpty())
				Expect(cfg.PollInterval).To(Equal(5 * time.Second))
				Expect(cfg.PurgeInterval).To(Equal(time.Hour))
				Expect(cfg.StatsInterval).To(Equal(60 * time.Second))
				Expect(cfg.Retention).To(Equal(168 * time.Hour))
				Expect(cfg.BatchSize).To(Equal(200))
				Expect(cfg.HTTPTimeout).To(Equal(5 * time.Second))
			})
		})

		When("the environment overrides a value", func() {
			BeforeEach(func() {
				GinkgoT().Setenv("RBFTRACK_POLL_INTERVAL", "30s")
				GinkgoT().Setenv("RBFTRACK_DB_PATH", "/tmp/mempool.db")
			})

			It("picks it up", func() {
				cfg, err := config.NewApp()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.PollInterval).To(Equal(30 * time.Second))
				Expect(cfg.DBPath).To(Equal("/tmp/mempool.db"))
			})
		})

		When("the environment holds an invalid value", func() {
			BeforeEach(func() {
				GinkgoT().Setenv("RBFTRACK_API_BASE_URL", "not a url")
			})

			It("fails validation", func() {
				_, err := config.NewApp()
				Expect(err).To(MatchError(ContainSubstring("validating config")))
			})
		})
	})

	Describe("Validate", func() {
		var cfg config.App

		BeforeEach(func() {
			cfg = config.App{
				APIBaseURL:    "http://127.0.0.1:3000",
				PollInterval:  5 * time.Second,
				PurgeInterval: time.Hour,
				StatsInterval: time.Minute,
				Retention:     168 * time.Hour,
				BatchSize:     200,
				HTTPTimeout:   5 * time.Second,
			}
		})

		It("accepts a complete configuration", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("rejects a sub-second poll interval", func() {
			cfg.PollInterval = 100 * time.Millisecond
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("rejects a zero batch size", func() {
			cfg.BatchSize = 0
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("rejects a retention shorter than an hour", func() {
			cfg.Retention = 30 * time.Minute
			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})
})
