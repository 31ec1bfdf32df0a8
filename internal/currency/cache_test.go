package currency_test

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/expense-approval/internal/currency"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

type memoryCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	readErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

var _ = Describe("CachedProvider", func() {
	var (
		oracle *fakeProvider
		cache  *memoryCache
		ctx    context.Context
	)

	BeforeEach(func() {
		oracle = &fakeProvider{tables: map[string]*currency.RateTable{
			"USD": {Base: "USD", Date: "2024-05-01", Rates: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.9")}},
		}}
		cache = newMemoryCache()
		ctx = context.Background()
	})

	It("hits the oracle once per base within the ttl", func() {
		provider := currency.NewCachedProvider(oracle, cache, time.Minute, silentLogger)

		first, err := provider.Rates(ctx, "USD")
		Expect(err).NotTo(HaveOccurred())
		second, err := provider.Rates(ctx, "usd")
		Expect(err).NotTo(HaveOccurred())

		Expect(oracle.calls).To(HaveLen(1))
		Expect(second.Rates["EUR"].Equal(first.Rates["EUR"])).To(BeTrue())
		Expect(cache.ttls["fx:rates:USD"]).To(Equal(time.Minute))
	})

	It("falls through to the oracle when the cache is down", func() {
		cache.readErr = errors.New("redis: connection refused")
		provider := currency.NewCachedProvider(oracle, cache, time.Minute, silentLogger)

		table, err := provider.Rates(ctx, "USD")
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Base).To(Equal("USD"))
		Expect(oracle.calls).To(HaveLen(1))
	})

	It("ignores corrupt entries", func() {
		cache.entries["fx:rates:USD"] = []byte("not json")
		provider := currency.NewCachedProvider(oracle, cache, time.Minute, silentLogger)

		_, err := provider.Rates(ctx, "USD")
		Expect(err).NotTo(HaveOccurred())
		Expect(oracle.calls).To(HaveLen(1))
	})

	It("does not cache failures", func() {
		oracle.err = errors.New("down")
		provider := currency.NewCachedProvider(oracle, cache, time.Minute, silentLogger)

		_, err := provider.Rates(ctx, "USD")
		Expect(err).To(HaveOccurred())
		Expect(cache.entries).To(BeEmpty())
	})

	It("is the bare provider without a cache", func() {
		Expect(currency.NewCachedProvider(oracle, nil, time.Minute, silentLogger)).To(BeIdenticalTo(oracle))
	})
})
