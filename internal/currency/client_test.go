package currency_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/currency"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Client", func() {
	var (
		server *httptest.Server
		paths  []string
		status int
		body   string
	)

	BeforeEach(func() {
		paths = nil
		status = http.StatusOK
		body = `{"base":"USD","date":"2024-05-01","rates":{"EUR":0.9,"GBP":0.79}}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	client := func() *currency.Client {
		return currency.NewClient(internal.CurrencyConfig{BaseURL: server.URL + "/v4/latest/", Timeout: time.Second}, silentLogger)
	}

	It("fetches the table for the base currency", func() {
		table, err := client().Rates(context.Background(), "usd")

		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(Equal([]string{"/v4/latest/USD"}))
		Expect(table.Base).To(Equal("USD"))
		Expect(table.Rates["EUR"].Equal(decimal.RequireFromString("0.9"))).To(BeTrue())
	})

	It("fails on non-200 responses", func() {
		status = http.StatusTooManyRequests

		_, err := client().Rates(context.Background(), "USD")
		Expect(err).To(MatchError(ContainSubstring("429")))
	})

	It("fails on empty rate tables", func() {
		body = `{"base":"USD","date":"2024-05-01","rates":{}}`

		_, err := client().Rates(context.Background(), "USD")
		Expect(err).To(HaveOccurred())
	})

	It("fails on malformed bodies", func() {
		body = `<html>`

		_, err := client().Rates(context.Background(), "USD")
		Expect(err).To(HaveOccurred())
	})
})
