package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/frahmantamala/expense-approval/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("User Handler", func() {
	var (
		repo    *MockRepository
		handler *user.Handler
		router  chi.Router
		admin   *userDatamodel.User
		worker  *userDatamodel.User
	)

	withCaller := func(u *userDatamodel.User) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := identity.WithIdentity(r.Context(), user.FromDataModel(u).Identity())
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		}
	}

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = NewMockRepository()
		admin = repo.Add(&userDatamodel.User{CompanyID: 1, Email: "admin@acme.test", Name: "Ada", Role: "admin", IsActive: true})
		worker = repo.Add(&userDatamodel.User{CompanyID: 1, Email: "emp@acme.test", Name: "Eve", Role: "employee", IsActive: true})

		service := user.NewService(repo, fakeHasher{}, slogger)
		handler = user.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
	})

	route := func(caller *userDatamodel.User) chi.Router {
		r := chi.NewRouter()
		r.Use(withCaller(caller))
		r.Get("/users/me", handler.GetCurrentUser)
		r.Get("/users", handler.ListUsers)
		r.Post("/users", handler.CreateUser)
		r.Get("/users/{id}", handler.GetUser)
		r.Delete("/users/{id}", handler.DeleteUser)
		return r
	}

	It("returns the current user without the password hash", func() {
		router = route(admin)
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).NotTo(ContainSubstring("password"))
		var got user.User
		Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
		Expect(got.Email).To(Equal("admin@acme.test"))
	})

	It("returns 401 without an identity", func() {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		rec := httptest.NewRecorder()

		handler.GetCurrentUser(rec, req.WithContext(context.Background()))

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("creates a user", func() {
		router = route(admin)
		body := `{"email":"new@acme.test","name":"Neo","password":"secret123","role":"manager"}`
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var got user.User
		Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
		Expect(got.Role).To(Equal(identity.RoleManager))
	})

	It("rejects unknown fields", func() {
		router = route(admin)
		body := `{"email":"new@acme.test","name":"Neo","password":"secret123","role":"manager","is_admin":true}`
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("forbids employees from creating users", func() {
		router = route(worker)
		body := `{"email":"new@acme.test","name":"Neo","password":"secret123","role":"employee"}`
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("responds 404 for an unknown user", func() {
		router = route(admin)
		req := httptest.NewRequest(http.MethodGet, "/users/999", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("deactivates on delete", func() {
		router = route(admin)
		req := httptest.NewRequest(http.MethodDelete, "/users/2", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(repo.users[worker.ID].IsActive).To(BeFalse())
	})
})
