package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler *Handler
		rbac    *RBACAuthorization
		tokens  *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokens = NewJWTTokenGenerator(testSecurity)
		service := NewService(newMockCredentialRepository(), &mockRegistrar{}, tokens, testSecurity, slogger)
		base := &transport.BaseHandler{Logger: slogger}
		handler = NewHandler(base, service)
		rbac = NewRBACAuthorization(base, slogger)
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("returns tokens for valid credentials", func() {
			body := `{"email":"employee@example.com","password":"correct_password"}`
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			var result AuthTokens
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(gomega.Succeed())
			gomega.Expect(result.AccessToken).NotTo(gomega.BeEmpty())
		})

		ginkgo.It("answers 401 with an error envelope on bad credentials", func() {
			body := `{"email":"employee@example.com","password":"wrong"}`
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("INVALID_CREDENTIALS"))
		})

		ginkgo.It("answers 400 on malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{"))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("Signup", func() {
		ginkgo.It("answers 201", func() {
			body := `{"email":"f@acme.test","password":"longenough","name":"Fay","company_name":"Acme","currency_code":"USD"}`
			req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
			rec := httptest.NewRecorder()

			handler.Signup(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var seen *identity.Identity

		protected := func() http.Handler {
			return handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = identity.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))
		}

		ginkgo.BeforeEach(func() {
			seen = nil
		})

		ginkgo.It("puts the reloaded identity on the context", func() {
			token, _ := tokens.GenerateAccessToken(&identity.Identity{UserID: 2, CompanyID: 10, Role: identity.RoleAdmin})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			protected().ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seen).NotTo(gomega.BeNil())
			gomega.Expect(seen.UserID).To(gomega.Equal(int64(2)))
			gomega.Expect(seen.Role).To(gomega.Equal(identity.RoleAdmin))
		})

		ginkgo.It("rejects a missing header", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			rec := httptest.NewRecorder()

			protected().ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("rejects deactivated users even with a valid token", func() {
			token, _ := tokens.GenerateAccessToken(&identity.Identity{UserID: 3, CompanyID: 10, Role: identity.RoleManager})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			protected().ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("accepts a valid access token", func() {
			token, _ := tokens.GenerateAccessToken(&identity.Identity{UserID: 1, CompanyID: 10, Role: identity.RoleEmployee})
			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			handler.Logout(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		})
	})

	ginkgo.Describe("RBACAuthorization", func() {
		ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

		serve := func(mw func(http.Handler) http.Handler, caller *identity.Identity) int {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if caller != nil {
				req = req.WithContext(identity.WithIdentity(context.Background(), caller))
			}
			rec := httptest.NewRecorder()
			mw(ok).ServeHTTP(rec, req)
			return rec.Code
		}

		ginkgo.It("lets admins through RequireManager", func() {
			gomega.Expect(serve(rbac.RequireManager(), &identity.Identity{Role: identity.RoleAdmin})).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("stops employees at RequireManager", func() {
			gomega.Expect(serve(rbac.RequireManager(), &identity.Identity{Role: identity.RoleEmployee})).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("stops managers at RequireAdmin", func() {
			gomega.Expect(serve(rbac.RequireAdmin(), &identity.Identity{Role: identity.RoleManager})).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("answers 401 without identity", func() {
			gomega.Expect(serve(rbac.RequireAdmin(), nil)).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
