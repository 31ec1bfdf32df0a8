package category_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/expense-approval/internal/category"
	categoryPostgres "github.com/frahmantamala/expense-approval/internal/category/postgres"
	categoryDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/category"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *category.Handler
		router  chi.Router
		caller  *identity.Identity
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&categoryDatamodel.ExpenseCategory{})).To(Succeed())

		repo := categoryPostgres.NewCategoryRepository(db)
		service := category.NewService(repo, slogger)
		handler = category.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		for _, c := range []*categoryDatamodel.ExpenseCategory{
			{CompanyID: 1, Name: "meals", Description: "Meals and entertainment", IsActive: true},
			{CompanyID: 1, Name: "travel", Description: "Business travel", IsActive: true},
			{CompanyID: 1, Name: "retired", Description: "Inactive category", IsActive: false},
			{CompanyID: 2, Name: "meals", Description: "Other tenant", IsActive: true},
		} {
			Expect(db.Create(c).Error).To(Succeed())
		}

		caller = &identity.Identity{UserID: 1, CompanyID: 1, Role: identity.RoleManager}
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), caller)))
			})
		})
		router.Get("/categories", handler.GetCategories)
		router.Get("/categories/{id}", handler.GetCategory)
		router.Post("/categories", handler.CreateCategory)
		router.Put("/categories/{id}", handler.UpdateCategory)
		router.Delete("/categories/{id}", handler.DeleteCategory)
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
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

	It("lists active categories of the caller's company", func() {
		rec := do(http.MethodGet, "/categories", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp category.CategoriesResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Categories).To(HaveLen(2))
		Expect(resp.Categories[0].Name).To(Equal("meals"))
		Expect(resp.Categories[0].Description).To(Equal("Meals and entertainment"))
	})

	It("answers 404 for another company's category", func() {
		rec := do(http.MethodGet, "/categories/4", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("answers 409 for a duplicate name", func() {
		rec := do(http.MethodPost, "/categories", `{"name":"travel"}`)

		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring("DUPLICATE_CATEGORY"))
	})

	It("creates a category", func() {
		rec := do(http.MethodPost, "/categories", `{"name":"software","description":"licences"}`)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var c category.Category
		Expect(json.Unmarshal(rec.Body.Bytes(), &c)).To(Succeed())
		Expect(c.ID).To(BeNumerically(">", 0))
		Expect(c.CompanyID).To(Equal(int64(1)))
	})

	It("renames a category", func() {
		rec := do(http.MethodPut, "/categories/1", `{"name":"food"}`)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var stored categoryDatamodel.ExpenseCategory
		Expect(db.First(&stored, 1).Error).To(Succeed())
		Expect(stored.Name).To(Equal("food"))
	})

	It("deactivates on delete", func() {
		rec := do(http.MethodDelete, "/categories/2", "")

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		var stored categoryDatamodel.ExpenseCategory
		Expect(db.First(&stored, 2).Error).To(Succeed())
		Expect(stored.IsActive).To(BeFalse())
	})

	It("rejects a malformed id", func() {
		rec := do(http.MethodGet, "/categories/abc", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
