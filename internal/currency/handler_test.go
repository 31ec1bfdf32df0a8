package currency_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/expense-approval/internal/currency"
	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Currency Handler", func() {
	var (
		provider *fakeProvider
		router   chi.Router
	)

	BeforeEach(func() {
		provider = &fakeProvider{tables: map[string]*currency.RateTable{
			"USD": {Base: "USD", Date: "2024-05-01", Rates: map[string]decimal.Decimal{
				"EUR": decimal.RequireFromString("0.9"),
			}},
		}}
		handler := currency.NewHandler(transport.NewBaseHandler(silentLogger), currency.NewNormalizer(provider, silentLogger))

		router = chi.NewRouter()
		router.Get("/exchange-rates/{base}", handler.GetExchangeRates)
		router.Post("/convert", handler.Convert)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	Describe("GET /exchange-rates/{base}", func() {
		It("returns the table for an upper-cased base", func() {
			rec := do(http.MethodGet, "/exchange-rates/usd", "")

			Expect(rec.Code).To(Equal(http.StatusOK))
			var table currency.RateTable
			Expect(json.Unmarshal(rec.Body.Bytes(), &table)).To(Succeed())
			Expect(table.Base).To(Equal("USD"))
			Expect(table.Date).To(Equal("2024-05-01"))
			Expect(table.Rates["EUR"].Equal(decimal.RequireFromString("0.9"))).To(BeTrue())
			Expect(provider.calls).To(Equal([]string{"USD"}))
		})

		It("rejects a malformed code without calling the oracle", func() {
			rec := do(http.MethodGet, "/exchange-rates/us1", "")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("INVALID_CURRENCY"))
			Expect(provider.calls).To(BeEmpty())
		})

		It("answers 503 when the oracle has no table", func() {
			rec := do(http.MethodGet, "/exchange-rates/GBP", "")

			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(rec.Body.String()).To(ContainSubstring("RATE_UNAVAILABLE"))
		})
	})

	Describe("POST /convert", func() {
		It("converts through the oracle rate", func() {
			rec := do(http.MethodPost, "/convert", `{"amount":"100.00","from":"usd","to":"eur"}`)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp currency.ConvertResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.OriginalCurrency).To(Equal("USD"))
			Expect(resp.TargetCurrency).To(Equal("EUR"))
			Expect(resp.ConvertedAmount.Equal(decimal.RequireFromString("90"))).To(BeTrue())
			Expect(resp.ExchangeRate.Equal(decimal.RequireFromString("0.9"))).To(BeTrue())
			Expect(resp.RateDate).To(Equal("2024-05-01"))
		})

		It("rejects a non-positive amount", func() {
			rec := do(http.MethodPost, "/convert", `{"amount":"0","from":"USD","to":"EUR"}`)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("INVALID_AMOUNT"))
			Expect(provider.calls).To(BeEmpty())
		})

		It("answers 503 when the target rate is missing", func() {
			rec := do(http.MethodPost, "/convert", `{"amount":"10","from":"USD","to":"JPY"}`)

			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(rec.Body.String()).To(ContainSubstring("RATE_UNAVAILABLE"))
		})
	})
})
