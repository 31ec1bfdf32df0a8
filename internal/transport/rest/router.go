package rest

import (
	"database/sql"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal/approval"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	"github.com/frahmantamala/expense-approval/internal/auth"
	"github.com/frahmantamala/expense-approval/internal/category"
	"github.com/frahmantamala/expense-approval/internal/company"
	"github.com/frahmantamala/expense-approval/internal/currency"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/frahmantamala/expense-approval/internal/report"
	"github.com/frahmantamala/expense-approval/internal/transport/middleware"
	"github.com/frahmantamala/expense-approval/internal/transport/swagger"
	"github.com/frahmantamala/expense-approval/internal/user"
	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth         *auth.Handler
	RBAC         *auth.RBACAuthorization
	Company      *company.Handler
	User         *user.Handler
	Category     *category.Handler
	Expense      *expense.Handler
	ApprovalRule *approvalrule.Handler
	Approval     *approval.Handler
	Report       *report.Handler
	Currency     *currency.Handler
}

type Options struct {
	DB             *sql.DB
	Redis          *redis.Client
	Spec           *swagger.Spec
	AllowedOrigins string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	health := NewHealthHandler(opts.DB, opts.Redis)
	rbac := h.RBAC

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware())

	if opts.Spec != nil {
		router.Method(http.MethodGet, swagger.SpecURL, opts.Spec)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.Health)
		r.Get("/ping", health.Ping)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/signup", h.Auth.Signup)
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/companies/me", h.Company.GetMyCompany)

			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/", h.User.ListUsers)
				ur.Get("/{id}", h.User.GetUser)
				ur.Put("/{id}", h.User.UpdateUser)
				ur.With(rbac.RequireManager()).Post("/", h.User.CreateUser)
				ur.With(rbac.RequireAdmin()).Delete("/{id}", h.User.DeleteUser)
			})

			pr.Route("/categories", func(cr chi.Router) {
				cr.Get("/", h.Category.GetCategories)
				cr.Get("/{id}", h.Category.GetCategory)
				cr.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireManager())
					mr.Post("/", h.Category.CreateCategory)
					mr.Put("/{id}", h.Category.UpdateCategory)
					mr.Delete("/{id}", h.Category.DeleteCategory)
				})
			})

			pr.Route("/expenses", func(er chi.Router) {
				er.Post("/", h.Expense.CreateExpense)
				er.Get("/", h.Expense.ListExpenses)
				er.Get("/{id}", h.Expense.GetExpense)
				er.Put("/{id}", h.Expense.UpdateExpense)
				er.Delete("/{id}", h.Expense.DeleteExpense)
				er.Post("/{id}/submit", h.Expense.SubmitExpense)
				er.Get("/{id}/approval-status", h.Approval.GetApprovalStatus)
				er.Get("/{id}/history", h.Approval.History)
			})

			pr.Route("/approval-rules", func(rr chi.Router) {
				rr.Use(rbac.RequireManager())
				rr.Get("/", h.ApprovalRule.ListRules)
				rr.Get("/{id}", h.ApprovalRule.GetRule)
				rr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdmin())
					ar.Post("/", h.ApprovalRule.CreateRule)
					ar.Put("/{id}", h.ApprovalRule.UpdateRule)
					ar.Delete("/{id}", h.ApprovalRule.DeleteRule)
				})
			})

			pr.Route("/approvals", func(ar chi.Router) {
				ar.Get("/", h.Approval.ListApprovals)
				ar.Get("/inbox", h.Approval.Inbox)
				ar.Get("/{id}", h.Approval.GetApproval)
				ar.With(rbac.RequireManager()).Post("/{id}/approve", h.Approval.Approve)
				ar.With(rbac.RequireManager()).Post("/{id}/reject", h.Approval.Reject)
			})

			pr.Get("/exchange-rates/{base}", h.Currency.GetExchangeRates)
			pr.Post("/convert", h.Currency.Convert)

			pr.With(rbac.RequireManager()).Get("/reports/approvals.xlsx", h.Report.ExportApprovals)
		})
	})
}
