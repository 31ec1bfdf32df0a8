package expense

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
)

// ListQuery scopes a listing. A nil UserID lists the whole company.
type ListQuery struct {
	CompanyID int64
	UserID    *int64
	Status    Status
	Limit     int
	Offset    int
}

// Repository interface defines the data access methods for expenses
type Repository interface {
	Create(ctx context.Context, expense *expenseDatamodel.Expense) error
	GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error)
	List(ctx context.Context, q ListQuery) ([]*expenseDatamodel.Expense, error)
	UpdateDraft(ctx context.Context, expense *expenseDatamodel.Expense) error
	DeleteDraft(ctx context.Context, id int64) error
}

type CategoryChecker interface {
	EnsureActive(ctx context.Context, companyID, categoryID int64) error
}

// ApprovalWorkflow takes a draft expense through rule matching.
type ApprovalWorkflow interface {
	Submit(ctx context.Context, expense *Expense, actorID int64) (*SubmitResult, error)
}

// Service handles expense business logic
type Service struct {
	repo       Repository
	categories CategoryChecker
	workflow   ApprovalWorkflow
	logger     *slog.Logger
}

// NewService creates a new expense service
func NewService(repo Repository, categories CategoryChecker, workflow ApprovalWorkflow, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		workflow:   workflow,
		logger:     logger,
	}
}

// CreateExpense stores a new draft owned by the caller.
func (s *Service) CreateExpense(ctx context.Context, caller *identity.Identity, dto CreateExpenseDTO) (*Expense, error) {
	date, err := dto.Validate()
	if err != nil {
		s.logger.WarnContext(ctx, "expense validation failed", "error", err, "user_id", caller.UserID)
		return nil, err
	}
	if dto.CategoryID != nil {
		if err := s.categories.EnsureActive(ctx, caller.CompanyID, *dto.CategoryID); err != nil {
			return nil, err
		}
	}

	data := ToDataModel(NewExpense(caller.CompanyID, caller.UserID, dto, date))
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.ErrorContext(ctx, "failed to create expense", "error", err, "user_id", caller.UserID)
		return nil, err
	}

	s.logger.InfoContext(ctx, "expense created",
		"expense_id", data.ID,
		"user_id", caller.UserID,
		"amount", data.Amount.String(),
		"currency", data.Currency)

	return FromDataModel(data), nil
}

// load fetches an expense inside the caller's company; other tenants see NotFound.
func (s *Service) load(ctx context.Context, caller *identity.Identity, id int64) (*Expense, error) {
	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data.CompanyID != caller.CompanyID {
		return nil, internal.ErrExpenseNotFound
	}
	return FromDataModel(data), nil
}

// GetExpenseByID retrieves an expense by ID with access control
func (s *Service) GetExpenseByID(ctx context.Context, caller *identity.Identity, id int64) (*Expense, error) {
	e, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !caller.Role.SeesCompany() && !e.IsOwnedBy(caller.UserID) {
		s.logger.WarnContext(ctx, "unauthorized access to expense", "expense_id", id, "user_id", caller.UserID)
		return nil, internal.ErrUnauthorizedAccess
	}
	return e, nil
}

func (s *Service) ListExpenses(ctx context.Context, caller *identity.Identity, filter ListFilter) ([]*Expense, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	q := ListQuery{
		CompanyID: caller.CompanyID,
		Status:    filter.Status,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	if !caller.Role.SeesCompany() {
		q.UserID = &caller.UserID
	}

	data, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list expenses", "error", err, "company_id", caller.CompanyID)
		return nil, err
	}
	return FromDataModelSlice(data), nil
}

// editable loads an expense the caller owns and may still change.
func (s *Service) editable(ctx context.Context, caller *identity.Identity, id int64) (*Expense, error) {
	e, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !e.IsOwnedBy(caller.UserID) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if !e.IsDraft() {
		return nil, internal.ErrCannotModifyExpense
	}
	return e, nil
}

func (s *Service) UpdateExpense(ctx context.Context, caller *identity.Identity, id int64, dto UpdateExpenseDTO) (*Expense, error) {
	date, verr := dto.Validate()
	if verr != nil {
		return nil, verr
	}

	e, err := s.editable(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if dto.Amount != nil {
		e.Amount = *dto.Amount
	}
	if dto.Currency != nil {
		e.Currency = *dto.Currency
	}
	if date != nil {
		e.ExpenseDate = Date{Time: *date}
	}
	if dto.Description != nil {
		e.Description = *dto.Description
	}
	if dto.PaidBy != nil {
		e.PaidBy = *dto.PaidBy
	}
	if dto.CategoryID != nil {
		if err := s.categories.EnsureActive(ctx, caller.CompanyID, *dto.CategoryID); err != nil {
			return nil, err
		}
		e.CategoryID = dto.CategoryID
	}
	e.UpdatedAt = time.Now()

	if err := s.repo.UpdateDraft(ctx, ToDataModel(e)); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "expense updated", "expense_id", id, "user_id", caller.UserID)
	return e, nil
}

func (s *Service) DeleteExpense(ctx context.Context, caller *identity.Identity, id int64) error {
	if _, err := s.editable(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.DeleteDraft(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "expense deleted", "expense_id", id, "user_id", caller.UserID)
	return nil
}

// SubmitExpense hands a draft to the approval workflow. Only the owner may submit.
func (s *Service) SubmitExpense(ctx context.Context, caller *identity.Identity, id int64) (*SubmitResult, error) {
	e, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !e.IsOwnedBy(caller.UserID) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if !e.IsDraft() {
		s.logger.WarnContext(ctx, "cannot submit expense in current status", "expense_id", id, "status", e.Status)
		return nil, internal.ErrInvalidExpenseStatus
	}

	result, err := s.workflow.Submit(ctx, e, caller.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "expense submission failed", "expense_id", id, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "expense submitted",
		"expense_id", id,
		"status", result.Expense.Status,
		"approvals_created", result.ApprovalsCreated,
		"auto_approved", result.AutoApproved)

	return result, nil
}
