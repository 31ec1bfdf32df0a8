package expense_test

import (
	"encoding/json"

	"github.com/frahmantamala/expense-approval/internal/expense"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Date", func() {
	It("serialises as a calendar day", func() {
		d, err := expense.ParseDate("2024-03-09")
		Expect(err).NotTo(HaveOccurred())

		raw, err := json.Marshal(struct {
			D expense.Date `json:"d"`
		}{D: d})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(Equal(`{"d":"2024-03-09"}`))
	})

	It("rejects other layouts", func() {
		var d expense.Date
		Expect(json.Unmarshal([]byte(`"09/03/2024"`), &d)).NotTo(Succeed())
	})
})
