package approval

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/expense"
)

// visibleExpense loads an expense the caller may inspect: its owner, or a manager/admin of the company.
func (s *Service) visibleExpense(ctx context.Context, caller *identity.Identity, expenseID int64) (*expenseDatamodel.Expense, error) {
	exp, err := s.expenses.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if exp.CompanyID != caller.CompanyID {
		return nil, internal.ErrExpenseNotFound
	}
	if exp.UserID != caller.UserID && !caller.Role.SeesCompany() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return exp, nil
}

func (s *Service) GetApprovalStatus(ctx context.Context, caller *identity.Identity, expenseID int64) (*ApprovalStatus, error) {
	exp, err := s.visibleExpense(ctx, caller, expenseID)
	if err != nil {
		return nil, err
	}

	rows, err := s.approvals.ListByExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	approvals := FromDataModelSlice(rows)

	status := &ApprovalStatus{
		ExpenseID:     exp.ID,
		ExpenseStatus: expense.Status(exp.Status),
		HasApprovals:  len(approvals) > 0,
		Approvals:     approvals,
	}
	if !status.HasApprovals {
		return status, nil
	}

	rule, err := s.rules.FindRule(ctx, exp.CompanyID, approvals[0].RuleID)
	if err != nil {
		return nil, err
	}
	approvals = forRule(approvals, rule.ID)
	tally := Summarize(approvals)

	status.RuleID = &rule.ID
	status.RuleName = rule.Name
	status.IsSequential = rule.IsSequential
	status.Total = tally.Total
	status.Approved = tally.Approved
	status.Rejected = tally.Rejected
	status.Pending = tally.Pending
	status.ApprovalPercentage = tally.Percentage()
	status.RequiredPercentage = rule.ApprovalPercentage
	status.Approvals = approvals
	return status, nil
}

// ListApprovals shows admins the whole company and everyone else their own assignments.
func (s *Service) ListApprovals(ctx context.Context, caller *identity.Identity, filter ListFilter) ([]*Approval, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	q := ListQuery{
		CompanyID: caller.CompanyID,
		Status:    filter.Status,
		ExpenseID: filter.ExpenseID,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	if !caller.IsAdmin() {
		q.ApproverID = &caller.UserID
	}

	rows, err := s.approvals.List(ctx, q)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list approvals", "company_id", caller.CompanyID, "error", err)
		return nil, err
	}
	return FromDataModelSlice(rows), nil
}

// GetApproval is visible to the approver, the expense owner and company admins.
func (s *Service) GetApproval(ctx context.Context, caller *identity.Identity, id int64) (*Approval, error) {
	row, err := s.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exp, err := s.expenses.GetByID(ctx, row.ExpenseID)
	if err != nil {
		return nil, err
	}
	if exp.CompanyID != caller.CompanyID {
		return nil, internal.ErrApprovalNotFound
	}
	if row.ApproverUserID != caller.UserID && exp.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, internal.ErrUnauthorizedAccess
	}
	return FromDataModel(row), nil
}

func (s *Service) Inbox(ctx context.Context, caller *identity.Identity, limit, offset int) ([]*InboxItem, error) {
	if !caller.Role.CanApprove() {
		return []*InboxItem{}, nil
	}
	items, err := s.inbox.Inbox(ctx, caller.CompanyID, caller.UserID, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load approval inbox", "user_id", caller.UserID, "error", err)
		return nil, err
	}
	return items, nil
}

func (s *Service) History(ctx context.Context, caller *identity.Identity, expenseID int64) ([]*AuditEntry, error) {
	if _, err := s.visibleExpense(ctx, caller, expenseID); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, expenseID)
}
