package approvalrule

import (
	"context"
	"log/slog"
	"slices"

	"github.com/frahmantamala/expense-approval/internal"
	ruleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/user"
)

type Repository interface {
	Create(ctx context.Context, rule *ruleDatamodel.ApprovalRule) error
	GetByID(ctx context.Context, id int64) (*ruleDatamodel.ApprovalRule, error)
	List(ctx context.Context, companyID int64, filter ListFilter) ([]*ruleDatamodel.ApprovalRule, error)
	ListActive(ctx context.Context, companyID int64) ([]*ruleDatamodel.ApprovalRule, error)
	Update(ctx context.Context, rule *ruleDatamodel.ApprovalRule) error
	ReplaceApprovers(ctx context.Context, ruleID int64, approvers []ruleDatamodel.RuleApprover) error
	IsReferenced(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
}

type CompanyDirectory interface {
	BaseCurrency(ctx context.Context, companyID int64) (string, error)
}

type UserDirectory interface {
	FindUsers(ctx context.Context, companyID int64, ids []int64) ([]*user.User, error)
}

type CategoryChecker interface {
	EnsureActive(ctx context.Context, companyID, categoryID int64) error
}

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo       Repository
	companies  CompanyDirectory
	users      UserDirectory
	categories CategoryChecker
	txm        TxManager
	logger     *slog.Logger
}

func NewService(repo Repository, companies CompanyDirectory, users UserDirectory, categories CategoryChecker, txm TxManager, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		companies:  companies,
		users:      users,
		categories: categories,
		txm:        txm,
		logger:     logger,
	}
}

// GetActiveRules returns the company's active rules oldest first, approvers in order_index order.
func (s *Service) GetActiveRules(ctx context.Context, companyID int64) ([]*Rule, error) {
	data, err := s.repo.ListActive(ctx, companyID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load active rules", "company_id", companyID, "error", err)
		return nil, err
	}
	return FromDataModelSlice(data), nil
}

// FindRule loads a company rule whether or not it is still active.
func (s *Service) FindRule(ctx context.Context, companyID, id int64) (*Rule, error) {
	return s.load(ctx, companyID, id)
}

func (s *Service) ListRules(ctx context.Context, caller *identity.Identity, filter ListFilter) ([]*Rule, error) {
	if !caller.Role.SeesCompany() {
		return nil, internal.ErrUnauthorizedAccess
	}
	data, err := s.repo.List(ctx, caller.CompanyID, filter)
	if err != nil {
		return nil, err
	}
	return FromDataModelSlice(data), nil
}

func (s *Service) GetRule(ctx context.Context, caller *identity.Identity, id int64) (*Rule, error) {
	if !caller.Role.SeesCompany() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.load(ctx, caller.CompanyID, id)
}

func (s *Service) load(ctx context.Context, companyID, id int64) (*Rule, error) {
	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data.CompanyID != companyID {
		return nil, internal.ErrRuleNotFound
	}
	return FromDataModel(data), nil
}

func (s *Service) CreateRule(ctx context.Context, caller *identity.Identity, dto CreateRuleDTO) (*Rule, error) {
	if !caller.IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}

	base, err := s.companies.BaseCurrency(ctx, caller.CompanyID)
	if err != nil {
		return nil, err
	}
	if verr := dto.Validate(base); verr != nil {
		return nil, verr
	}
	if dto.CategoryID != nil {
		if err := s.categories.EnsureActive(ctx, caller.CompanyID, *dto.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := s.checkApprovers(ctx, caller.CompanyID, dto.ApproverUserIDs); err != nil {
		return nil, err
	}

	rule := &Rule{
		CompanyID:          caller.CompanyID,
		Name:               dto.Name,
		CategoryID:         dto.CategoryID,
		CurrencyCode:       dto.CurrencyCode,
		MinAmount:          *dto.MinAmount,
		Priority:           *dto.Priority,
		IsSequential:       dto.IsSequential,
		ApprovalPercentage: *dto.ApprovalPercentage,
		IsActive:           true,
		Approvers:          NewApprovers(dto.ApproverUserIDs),
	}
	if dto.MaxAmount != nil {
		rule.MaxAmount.Decimal = *dto.MaxAmount
		rule.MaxAmount.Valid = true
	}

	data := ToDataModel(rule)
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.ErrorContext(ctx, "failed to create approval rule", "company_id", caller.CompanyID, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "approval rule created",
		"rule_id", data.ID,
		"company_id", caller.CompanyID,
		"approvers", len(data.Approvers),
		"is_sequential", data.IsSequential,
		"approval_percentage", data.ApprovalPercentage)

	return s.load(ctx, caller.CompanyID, data.ID)
}

func (s *Service) UpdateRule(ctx context.Context, caller *identity.Identity, id int64, dto UpdateRuleDTO) (*Rule, error) {
	if !caller.IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}

	rule, err := s.load(ctx, caller.CompanyID, id)
	if err != nil {
		return nil, err
	}
	base, err := s.companies.BaseCurrency(ctx, caller.CompanyID)
	if err != nil {
		return nil, err
	}
	before := *rule
	if verr := dto.Apply(rule, base); verr != nil {
		return nil, verr
	}
	decisive := rule.ApprovalPercentage != before.ApprovalPercentage ||
		rule.IsSequential != before.IsSequential ||
		(dto.ApproverUserIDs != nil && !slices.Equal(*dto.ApproverUserIDs, before.ApproverIDs()))
	if dto.CategoryID != nil && !dto.ClearCategory {
		if err := s.categories.EnsureActive(ctx, caller.CompanyID, *dto.CategoryID); err != nil {
			return nil, err
		}
	}
	if dto.ApproverUserIDs != nil {
		if err := s.checkApprovers(ctx, caller.CompanyID, *dto.ApproverUserIDs); err != nil {
			return nil, err
		}
	}

	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		// In-flight expenses read the rule live when tallying.
		if decisive {
			used, err := s.repo.IsReferenced(ctx, id)
			if err != nil {
				return err
			}
			if used {
				return internal.ErrRuleInUse
			}
		}
		if err := s.repo.Update(ctx, ToDataModel(rule)); err != nil {
			return err
		}
		if dto.ApproverUserIDs == nil {
			return nil
		}
		return s.repo.ReplaceApprovers(ctx, id, ApproversToDataModel(id, NewApprovers(*dto.ApproverUserIDs)))
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update approval rule", "rule_id", id, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "approval rule updated", "rule_id", id, "replaced_approvers", dto.ApproverUserIDs != nil)
	return s.load(ctx, caller.CompanyID, id)
}

// DeleteRule removes a rule no approval points at; a rule already used is only deactivated.
func (s *Service) DeleteRule(ctx context.Context, caller *identity.Identity, id int64) (*DeleteResult, error) {
	if !caller.IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	if _, err := s.load(ctx, caller.CompanyID, id); err != nil {
		return nil, err
	}

	result := &DeleteResult{RuleID: id}
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		used, err := s.repo.IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			result.Deactivated = true
			return s.repo.Deactivate(ctx, id)
		}
		result.Deleted = true
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "approval rule removed", "rule_id", id, "deleted", result.Deleted, "deactivated", result.Deactivated)
	return result, nil
}

// checkApprovers requires every id to be an active manager or admin of the company.
func (s *Service) checkApprovers(ctx context.Context, companyID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := s.users.FindUsers(ctx, companyID, ids)
	if err != nil {
		return err
	}

	byID := make(map[int64]*user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range ids {
		u, ok := byID[id]
		if !ok || u.CompanyID != companyID {
			return internal.NewValidationFieldError("approver_user_ids", "approver does not belong to this company", internal.ErrCodeInvalidApprover)
		}
		if !u.IsActiveUser() {
			return internal.NewValidationFieldError("approver_user_ids", "approver "+u.Email+" is inactive", internal.ErrCodeInvalidApprover)
		}
		if !u.CanApprove() {
			return internal.NewValidationFieldError("approver_user_ids", "approver "+u.Email+" must be a manager or admin", internal.ErrCodeInvalidApprover)
		}
	}
	return nil
}
