package company_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/company"
	companyPostgres "github.com/frahmantamala/expense-approval/internal/company/postgres"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	companyDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/company"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	userPostgres "github.com/frahmantamala/expense-approval/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCompany(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Company Suite")
}

var _ = Describe("Company Service", func() {
	var (
		db      *gorm.DB
		service *company.Service
		ctx     context.Context
	)

	input := func(email string) company.RegisterInput {
		return company.RegisterInput{
			CompanyName:  "  Acme  ",
			CurrencyCode: "eur",
			AdminName:    "Ada",
			AdminEmail:   email,
			PasswordHash: "hashed",
		}
	}

	count := func(model interface{}) int64 {
		var n int64
		Expect(db.Model(model).Count(&n).Error).To(Succeed())
		return n
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&companyDatamodel.Company{}, &userDatamodel.User{})).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = company.NewService(
			companyPostgres.NewCompanyRepository(db),
			userPostgres.NewUserRepository(db),
			database.NewTxManager(db, slogger),
			slogger,
		)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	Describe("Register", func() {
		It("creates the company with an active admin", func() {
			// Given a fresh signup
			// When it is registered
			c, admin, err := service.Register(ctx, input("Ada@Example.com"))

			// Then both rows exist and are linked
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Name).To(Equal("Acme"))
			Expect(c.CurrencyCode).To(Equal("EUR"))
			Expect(admin.CompanyID).To(Equal(c.ID))
			Expect(admin.Role).To(Equal("admin"))
			Expect(admin.Email).To(Equal("ada@example.com"))
			Expect(admin.IsActive).To(BeTrue())
		})

		It("leaves no company behind when the admin cannot be created", func() {
			// Given the email is already taken
			_, _, err := service.Register(ctx, input("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			// When a second company registers with it
			_, _, err = service.Register(ctx, input("ada@example.com"))

			// Then the whole registration is rolled back
			Expect(errors.Is(err, internal.ErrDuplicateEmail)).To(BeTrue())
			Expect(count(&companyDatamodel.Company{})).To(Equal(int64(1)))
			Expect(count(&userDatamodel.User{})).To(Equal(int64(1)))
		})

		DescribeTable("rejects invalid input",
			func(mutate func(in *company.RegisterInput)) {
				in := input("ada@example.com")
				mutate(&in)

				_, _, err := service.Register(ctx, in)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
				Expect(count(&companyDatamodel.Company{})).To(BeZero())
			},
			Entry("blank name", func(in *company.RegisterInput) { in.CompanyName = "   " }),
			Entry("bad currency", func(in *company.RegisterInput) { in.CurrencyCode = "EURO" }),
			Entry("bad email", func(in *company.RegisterInput) { in.AdminEmail = "nope" }),
			Entry("no password", func(in *company.RegisterInput) { in.PasswordHash = "" }),
		)
	})

	Describe("BaseCurrency", func() {
		It("returns the company currency", func() {
			c, _, err := service.Register(ctx, input("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			currency, err := service.BaseCurrency(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(currency).To(Equal("EUR"))
		})

		It("reports unknown companies", func() {
			_, err := service.BaseCurrency(ctx, 42)
			Expect(errors.Is(err, internal.ErrCompanyNotFound)).To(BeTrue())
		})
	})
})
