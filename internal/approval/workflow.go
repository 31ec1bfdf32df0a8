package approval

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	approvalDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approval"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/currency"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateBatch(ctx context.Context, approvals []*approvalDatamodel.Approval) error
	GetByID(ctx context.Context, id int64) (*approvalDatamodel.Approval, error)
	ListByExpense(ctx context.Context, expenseID int64) ([]*approvalDatamodel.Approval, error)
	List(ctx context.Context, q ListQuery) ([]*approvalDatamodel.Approval, error)
	Respond(ctx context.Context, id int64, status Status, comments *string, at time.Time) (bool, error)
}

type ExpenseStore interface {
	GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error)
	GetForUpdate(ctx context.Context, id int64) (*expenseDatamodel.Expense, error)
	MarkSubmitted(ctx context.Context, id int64, companyAmount, rate decimal.Decimal, at time.Time) (bool, error)
	TransitionStatus(ctx context.Context, id int64, from, to expense.Status) (bool, error)
}

type RuleSource interface {
	GetActiveRules(ctx context.Context, companyID int64) ([]*approvalrule.Rule, error)
	FindRule(ctx context.Context, companyID, id int64) (*approvalrule.Rule, error)
}

type CompanyDirectory interface {
	BaseCurrency(ctx context.Context, companyID int64) (string, error)
}

type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*currency.Conversion, error)
}

type InboxReader interface {
	Inbox(ctx context.Context, companyID, approverID int64, limit, offset int) ([]*InboxItem, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Dependencies struct {
	Approvals Repository
	Expenses  ExpenseStore
	Rules     RuleSource
	Companies CompanyDirectory
	Converter Converter
	Inbox     InboxReader
	Audit     *AuditTrail
	Publisher Publisher
	Tx        TxManager
	Logger    *slog.Logger
}

// Service runs the approval workflow: submission, per-approver decisions and the read side.
type Service struct {
	approvals Repository
	expenses  ExpenseStore
	rules     RuleSource
	companies CompanyDirectory
	converter Converter
	inbox     InboxReader
	audit     *AuditTrail
	publisher Publisher
	txm       TxManager
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		approvals: deps.Approvals,
		expenses:  deps.Expenses,
		rules:     deps.Rules,
		companies: deps.Companies,
		converter: deps.Converter,
		inbox:     deps.Inbox,
		audit:     deps.Audit,
		publisher: deps.Publisher,
		txm:       deps.Tx,
		logger:    deps.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ expense.ApprovalWorkflow = (*Service)(nil)

// Submit moves a draft to submitted and either opens approvals or approves it outright.
// Conversion and rule lookup happen before any write so an oracle failure leaves the draft untouched.
func (s *Service) Submit(ctx context.Context, e *expense.Expense, actorID int64) (*expense.SubmitResult, error) {
	base, err := s.companies.BaseCurrency(ctx, e.CompanyID)
	if err != nil {
		return nil, err
	}
	conv, err := s.converter.Convert(ctx, e.Amount, e.Currency, base)
	if err != nil {
		return nil, err
	}
	rules, err := s.rules.GetActiveRules(ctx, e.CompanyID)
	if err != nil {
		return nil, err
	}

	rule := FindMatchingRule(e.CategoryID, conv.Amount, rules)
	now := s.now()
	records := NewApprovalRecords(e.ID, rule, now)

	result := &expense.SubmitResult{ApprovalsCreated: len(records), AutoApproved: len(records) == 0}
	if rule != nil {
		result.RuleID = &rule.ID
		result.RuleName = rule.Name
	}

	trail := newAuditBuilder(e.CompanyID, e.ID, &actorID)
	var created []*approvalDatamodel.Approval

	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.expenses.MarkSubmitted(ctx, e.ID, conv.Amount, conv.Rate, now)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrInvalidExpenseStatus
		}
		stored, err := s.expenses.GetByID(ctx, e.ID)
		if err != nil {
			return err
		}
		if !sameRoutingInput(stored, e) {
			return internal.ErrExpenseModified
		}
		trail.add(ActionSubmitted, nil, string(expense.StatusDraft), string(expense.StatusSubmitted), "")

		if result.AutoApproved {
			ok, err := s.expenses.TransitionStatus(ctx, e.ID, expense.StatusSubmitted, expense.StatusApproved)
			if err != nil {
				return err
			}
			if !ok {
				return internal.ErrInvalidExpenseStatus
			}
			trail.add(ActionAutoApproved, nil, string(expense.StatusSubmitted), string(expense.StatusApproved), "")
			return nil
		}

		created = ToDataModelSlice(records)
		if err := s.approvals.CreateBatch(ctx, created); err != nil {
			return err
		}
		for _, a := range created {
			trail.add(ActionApprovalCreated, &a.ID, "", string(StatusPending), "")
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "expense submission rolled back", "expense_id", e.ID, "error", err)
		return nil, err
	}

	s.audit.Record(ctx, trail.entries...)

	data, err := s.expenses.GetByID(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	result.Expense = expense.FromDataModel(data)

	s.logger.InfoContext(ctx, "expense routed",
		"expense_id", e.ID,
		"rule_id", result.RuleID,
		"company_amount", conv.Amount.String(),
		"base_currency", base,
		"approvals_created", result.ApprovalsCreated,
		"auto_approved", result.AutoApproved)

	s.publishSubmission(ctx, result.Expense, rule, FromDataModelSlice(created))
	return result, nil
}

func (s *Service) Approve(ctx context.Context, caller *identity.Identity, approvalID int64, dto DecisionDTO) (*DecisionResult, error) {
	dto.Normalize()
	return s.respond(ctx, caller, approvalID, StatusApproved, dto.Comments)
}

// Reject vetoes the whole expense; comments are mandatory.
func (s *Service) Reject(ctx context.Context, caller *identity.Identity, approvalID int64, dto DecisionDTO) (*DecisionResult, error) {
	if err := dto.ValidateRejection(); err != nil {
		return nil, err
	}
	return s.respond(ctx, caller, approvalID, StatusRejected, dto.Comments)
}

func (s *Service) respond(ctx context.Context, caller *identity.Identity, approvalID int64, decision Status, comments string) (*DecisionResult, error) {
	row, err := s.approvals.GetByID(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	a := FromDataModel(row)

	exp, err := s.expenses.GetByID(ctx, a.ExpenseID)
	if err != nil {
		return nil, err
	}
	if exp.CompanyID != caller.CompanyID {
		return nil, internal.ErrApprovalNotFound
	}
	if a.ApproverUserID != caller.UserID && !caller.IsAdmin() {
		s.logger.WarnContext(ctx, "approval attempted by someone else", "approval_id", a.ID, "user_id", caller.UserID)
		return nil, internal.ErrNotAssignedApprover
	}

	status := expense.Status(exp.Status)
	if status.IsFinal() {
		return nil, internal.ErrExpenseFinalized
	}
	if status != expense.StatusSubmitted {
		return nil, internal.ErrInvalidExpenseStatus
	}
	if !a.IsPending() {
		return nil, internal.ErrAlreadyProcessed
	}

	rule, err := s.rules.FindRule(ctx, exp.CompanyID, a.RuleID)
	if err != nil {
		return nil, err
	}
	siblings, err := s.siblings(ctx, a)
	if err != nil {
		return nil, err
	}
	if rule.IsSequential && !CanActNow(siblings, a) {
		return nil, internal.ErrOutOfOrder
	}

	now := s.now()
	var commentPtr *string
	if comments != "" {
		commentPtr = &comments
	}

	result := &DecisionResult{ExpenseStatus: expense.StatusSubmitted, RequiredPercentage: rule.ApprovalPercentage}
	trail := newAuditBuilder(exp.CompanyID, exp.ID, &caller.UserID)
	action := ActionApproved
	if decision == StatusRejected {
		action = ActionRejected
	}

	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.expenses.GetForUpdate(ctx, exp.ID)
		if err != nil {
			return err
		}
		if expense.Status(locked.Status) != expense.StatusSubmitted {
			return internal.ErrExpenseFinalized
		}

		ok, err := s.approvals.Respond(ctx, a.ID, decision, commentPtr, now)
		if err != nil {
			return err
		}
		if !ok {
			current, err := s.expenses.GetByID(ctx, exp.ID)
			if err != nil {
				return err
			}
			if expense.Status(current.Status) != expense.StatusSubmitted {
				return internal.ErrExpenseFinalized
			}
			return internal.ErrAlreadyProcessed
		}
		trail.add(action, &a.ID, string(StatusPending), string(decision), comments)

		siblings, err = s.siblings(ctx, a)
		if err != nil {
			return err
		}
		tally := Summarize(siblings)
		result.Tally = tally
		result.CurrentPercentage = tally.Percentage()

		target := expense.StatusSubmitted
		switch Decide(tally, rule.ApprovalPercentage) {
		case OutcomeApproved:
			target = expense.StatusApproved
		case OutcomeRejected:
			target = expense.StatusRejected
		default:
			return nil
		}

		ok, err = s.expenses.TransitionStatus(ctx, exp.ID, expense.StatusSubmitted, target)
		if err != nil {
			return err
		}
		if !ok {
			// Finalized concurrently; only the same outcome may commit.
			current, err := s.expenses.GetByID(ctx, exp.ID)
			if err != nil {
				return err
			}
			if expense.Status(current.Status) != target {
				return internal.ErrExpenseFinalized
			}
			result.ExpenseStatus = target
			return nil
		}

		result.ExpenseStatus = target
		finalAction := ActionExpenseApproved
		if target == expense.StatusRejected {
			finalAction = ActionExpenseRejected
		}
		trail.add(finalAction, nil, string(expense.StatusSubmitted), string(target), "")
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "approval decision rolled back", "approval_id", a.ID, "decision", decision, "error", err)
		return nil, err
	}

	s.audit.Record(ctx, trail.entries...)

	a.Status = decision
	a.Comments = commentPtr
	a.RespondedAt = &now
	result.Approval = a

	s.logger.InfoContext(ctx, "approval decided",
		"approval_id", a.ID,
		"expense_id", exp.ID,
		"decision", decision,
		"acting_user_id", caller.UserID,
		"approved", result.Tally.Approved,
		"total", result.Tally.Total,
		"required_percentage", rule.ApprovalPercentage,
		"expense_status", result.ExpenseStatus)

	s.publishDecision(ctx, exp, rule, a, siblings, result.ExpenseStatus)
	return result, nil
}

// sameRoutingInput reports whether the stored row still carries the amount, currency and
// category the conversion and rule match were computed from.
func sameRoutingInput(stored *expenseDatamodel.Expense, e *expense.Expense) bool {
	if !stored.Amount.Equal(e.Amount) || stored.Currency != e.Currency {
		return false
	}
	if stored.CategoryID == nil || e.CategoryID == nil {
		return stored.CategoryID == nil && e.CategoryID == nil
	}
	return *stored.CategoryID == *e.CategoryID
}

// siblings loads the approvals created for the same expense by the same rule.
func (s *Service) siblings(ctx context.Context, a *Approval) ([]*Approval, error) {
	rows, err := s.approvals.ListByExpense(ctx, a.ExpenseID)
	if err != nil {
		return nil, err
	}
	return forRule(FromDataModelSlice(rows), a.RuleID), nil
}

func (s *Service) publishSubmission(ctx context.Context, e *expense.Expense, rule *approvalrule.Rule, created []*Approval) {
	var ruleID *int64
	if rule != nil {
		ruleID = &rule.ID
	}
	amount := e.Amount.String()

	s.publish(ctx, events.NewExpenseEvent(events.EventTypeExpenseSubmitted, e.ID, e.CompanyID, e.UserID, amount, e.Currency, ruleID))
	if len(created) == 0 {
		s.publish(ctx, events.NewExpenseEvent(events.EventTypeExpenseAutoApproved, e.ID, e.CompanyID, e.UserID, amount, e.Currency, ruleID))
		return
	}

	requested := created
	if rule.IsSequential {
		requested = NextInLine(created)
	}
	for _, a := range requested {
		s.publish(ctx, events.NewApprovalEvent(events.EventTypeApprovalRequested, a.ID, e.ID, e.CompanyID, a.ApproverUserID, a.OrderIndex, ""))
	}
}

func (s *Service) publishDecision(ctx context.Context, exp *expenseDatamodel.Expense, rule *approvalrule.Rule, a *Approval, siblings []*Approval, outcome expense.Status) {
	eventType := events.EventTypeApprovalApproved
	if a.Status == StatusRejected {
		eventType = events.EventTypeApprovalRejected
	}
	comments := ""
	if a.Comments != nil {
		comments = *a.Comments
	}
	s.publish(ctx, events.NewApprovalEvent(eventType, a.ID, exp.ID, exp.CompanyID, a.ApproverUserID, a.OrderIndex, comments))

	switch outcome {
	case expense.StatusApproved:
		s.publish(ctx, events.NewExpenseEvent(events.EventTypeExpenseApproved, exp.ID, exp.CompanyID, exp.UserID, exp.Amount.String(), exp.Currency, &rule.ID))
	case expense.StatusRejected:
		s.publish(ctx, events.NewExpenseEvent(events.EventTypeExpenseRejected, exp.ID, exp.CompanyID, exp.UserID, exp.Amount.String(), exp.Currency, &rule.ID))
	default:
		if !rule.IsSequential {
			return
		}
		for _, next := range NextInLine(siblings) {
			s.publish(ctx, events.NewApprovalEvent(events.EventTypeApprovalRequested, next.ID, exp.ID, exp.CompanyID, next.ApproverUserID, next.OrderIndex, ""))
		}
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish workflow event", "event_type", event.EventType(), "error", err)
	}
}
