package internal_test

import (
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

func validConfig() internal.Config {
	return internal.Config{
		Server: internal.ServerConfig{
			Port:              8080,
			AllowedOrigins:    "http://localhost:3000, *",
			ReadHeaderTimeout: time.Second,
			ReadTimeout:       5 * time.Second,
		},
		Database: internal.DatabaseConfig{
			Source:       "postgres://localhost/expense",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Security: internal.SecurityConfig{
			JWTAccessSecret:  "access-secret-0123456789",
			JWTRefreshSecret: "refresh-secret-0123456789",
			BCryptCost:       12,
		},
		Currency: internal.CurrencyConfig{BaseURL: "https://rates.example.com/latest"},
	}
}

var _ = Describe("Config", func() {
	It("accepts a complete configuration", func() {
		cfg := validConfig()
		Expect(cfg.Validate()).To(Succeed())
	})

	It("joins every section error into one message", func() {
		// Given
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 50
		cfg.Security.JWTRefreshSecret = cfg.Security.JWTAccessSecret

		// When
		err := cfg.Validate()

		// Then
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("database config"))
		Expect(err.Error()).To(ContainSubstring("security config"))
		Expect(err.Error()).To(ContainSubstring("; "))
	})

	It("treats an empty webhook url as disabled", func() {
		cfg := validConfig()
		cfg.Notification = internal.NotificationConfig{MaxWorkers: -1}
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects unknown log levels", func() {
		cfg := validConfig()
		cfg.Observability.Logging.Level = "verbose"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("logging config")))
	})

	Describe("LoadConfigFromEnv", func() {
		AfterEach(func() {
			os.Unsetenv("PORT")
			os.Unsetenv("REDIS_ADDR")
			os.Unsetenv("CURRENCY_CACHE_TTL")
		})

		It("reads overrides and falls back to defaults", func() {
			os.Setenv("PORT", "9090")
			os.Setenv("REDIS_ADDR", "redis:6379")
			os.Setenv("CURRENCY_CACHE_TTL", "10m")

			cfg := internal.LoadConfigFromEnv()

			Expect(cfg.Server.Port).To(Equal(9090))
			Expect(cfg.Redis.Addr).To(Equal("redis:6379"))
			Expect(cfg.Currency.CacheTTL).To(Equal(10 * time.Minute))
			Expect(cfg.Notification.MaxWorkers).To(Equal(4))
		})
	})
})

var _ = Describe("AppError", func() {
	It("keeps sentinels untouched when a cause is attached", func() {
		cause := errors.New("boom")
		err := internal.ErrExpenseNotFound.WithCause(cause)

		Expect(errors.Is(err, internal.ErrExpenseNotFound)).To(BeTrue())
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(internal.ErrExpenseNotFound.Cause).To(BeNil())
	})

	It("describes storage failures with retry context", func() {
		err := internal.NewStorageError("approval", int64(7), "update", errors.New("conn reset"))

		Expect(err.Retryable).To(BeTrue())
		Expect(err.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(err.Details).To(Equal(internal.StorageDetails{Entity: "approval", EntityID: int64(7), Operation: "update"}))
	})

	It("finds wrapped app errors", func() {
		wrapped := errors.Join(errors.New("context"), internal.ErrOutOfOrder)
		appErr, ok := internal.IsAppError(wrapped)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeOutOfOrder))
	})

	It("serialises without internal fields", func() {
		status, body := internal.NewRateUnavailableError("USD", "EUR", errors.New("timeout")).ToHTTPResponse()
		Expect(status).To(Equal(http.StatusServiceUnavailable))
		Expect(body).To(BeAssignableToTypeOf(internal.Response{}))
	})
})
