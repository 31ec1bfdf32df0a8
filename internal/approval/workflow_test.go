package approval_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/approval"
	approvalPostgres "github.com/frahmantamala/expense-approval/internal/approval/postgres"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	rulePostgres "github.com/frahmantamala/expense-approval/internal/approvalrule/postgres"
	"github.com/frahmantamala/expense-approval/internal/company"
	companyPostgres "github.com/frahmantamala/expense-approval/internal/company/postgres"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	approvalDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approval"
	ruleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	auditDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/audit"
	categoryDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/category"
	companyDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/company"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/currency"
	"github.com/frahmantamala/expense-approval/internal/expense"
	expensePostgres "github.com/frahmantamala/expense-approval/internal/expense/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestApproval(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Approval Suite")
}

type ratesByBase struct {
	tables map[string]*currency.RateTable
	err    error
}

func (f *ratesByBase) Rates(_ context.Context, base string) (*currency.RateTable, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tables[base]
	if !ok {
		return nil, errors.New("unknown base")
	}
	return t, nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func (p *recordingPublisher) requestedApprovers() []int64 {
	var ids []int64
	for _, e := range p.events {
		if ae, ok := e.(*events.ApprovalEvent); ok && e.EventType() == events.EventTypeApprovalRequested {
			ids = append(ids, ae.ApproverUserID)
		}
	}
	return ids
}

// concurrentFinalizer hands out the expense as read, then lets another decision finalize it.
type concurrentFinalizer struct {
	*expensePostgres.ExpenseRepository
	finalize func(id int64)
	done     bool
}

func (c *concurrentFinalizer) GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error) {
	row, err := c.ExpenseRepository.GetByID(ctx, id)
	if err == nil && !c.done {
		c.done = true
		c.finalize(id)
	}
	return row, err
}

var _ = Describe("Workflow", func() {
	const companyID = int64(1)

	var (
		db        *gorm.DB
		ctx       context.Context
		svc       *approval.Service
		deps      approval.Dependencies
		expenses  *expensePostgres.ExpenseRepository
		rules     *rulePostgres.RuleRepository
		approvals *approvalPostgres.ApprovalRepository
		provider  *ratesByBase
		publisher *recordingPublisher

		admin    = &identity.Identity{UserID: 1, CompanyID: companyID, Role: identity.RoleAdmin}
		mira     = &identity.Identity{UserID: 2, CompanyID: companyID, Role: identity.RoleManager}
		omar     = &identity.Identity{UserID: 3, CompanyID: companyID, Role: identity.RoleManager}
		employee = &identity.Identity{UserID: 10, CompanyID: companyID, Role: identity.RoleEmployee}
		outsider = &identity.Identity{UserID: 20, CompanyID: 2, Role: identity.RoleAdmin}
	)

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

		Expect(db.AutoMigrate(
			&companyDatamodel.Company{},
			&userDatamodel.User{},
			&categoryDatamodel.ExpenseCategory{},
			&expenseDatamodel.Expense{},
			&ruleDatamodel.ApprovalRule{},
			&ruleDatamodel.RuleApprover{},
			&approvalDatamodel.Approval{},
			&auditDatamodel.Entry{},
		)).To(Succeed())

		Expect(db.Create(&companyDatamodel.Company{ID: 1, Name: "Acme", CurrencyCode: "EUR"}).Error).To(Succeed())
		Expect(db.Create(&companyDatamodel.Company{ID: 2, Name: "Globex", CurrencyCode: "EUR"}).Error).To(Succeed())
		for _, u := range []*userDatamodel.User{
			{ID: 1, CompanyID: 1, Email: "admin@acme.test", Name: "Ada", Role: "admin", IsActive: true},
			{ID: 2, CompanyID: 1, Email: "mira@acme.test", Name: "Mira", Role: "manager", IsActive: true},
			{ID: 3, CompanyID: 1, Email: "omar@acme.test", Name: "Omar", Role: "manager", IsActive: true},
			{ID: 4, CompanyID: 1, Email: "lin@acme.test", Name: "Lin", Role: "manager", IsActive: true},
			{ID: 10, CompanyID: 1, Email: "eve@acme.test", Name: "Eve", Role: "employee", IsActive: true},
			{ID: 20, CompanyID: 2, Email: "root@globex.test", Name: "Gus", Role: "admin", IsActive: true},
		} {
			Expect(db.Create(u).Error).To(Succeed())
		}
		Expect(db.Create(&categoryDatamodel.ExpenseCategory{ID: 7, CompanyID: 1, Name: "travel", IsActive: true}).Error).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		txm := database.NewTxManager(db, slogger)
		readModel, err := database.ReadModel(db, "sqlite3")
		Expect(err).NotTo(HaveOccurred())

		expenses = expensePostgres.NewExpenseRepository(db)
		rules = rulePostgres.NewRuleRepository(db)
		approvals = approvalPostgres.NewApprovalRepository(db)
		provider = &ratesByBase{tables: map[string]*currency.RateTable{
			"USD": {Base: "USD", Date: "2024-03-01", Rates: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.9")}},
		}}
		publisher = &recordingPublisher{}

		companies := company.NewService(companyPostgres.NewCompanyRepository(db), nil, txm, slogger)
		deps = approval.Dependencies{
			Approvals: approvals,
			Expenses:  expenses,
			Rules:     approvalrule.NewService(rules, companies, nil, nil, txm, slogger),
			Companies: companies,
			Converter: currency.NewNormalizer(provider, slogger),
			Inbox:     approvalPostgres.NewInboxReader(readModel),
			Audit:     approval.NewAuditTrail(approvalPostgres.NewAuditRepository(db), slogger),
			Publisher: publisher,
			Tx:        txm,
			Logger:    slogger,
		}
		svc = approval.NewService(deps)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	createRule := func(name string, categoryID *int64, min, max string, sequential bool, percentage int, approverIDs ...int64) int64 {
		r := &ruleDatamodel.ApprovalRule{
			CompanyID:          companyID,
			Name:               name,
			CategoryID:         categoryID,
			CurrencyCode:       "EUR",
			MinAmount:          decimal.RequireFromString(min),
			Priority:           1,
			IsSequential:       sequential,
			ApprovalPercentage: percentage,
			IsActive:           true,
		}
		if max != "" {
			r.MaxAmount = decimal.NewNullDecimal(decimal.RequireFromString(max))
		}
		for i, id := range approverIDs {
			r.Approvers = append(r.Approvers, ruleDatamodel.RuleApprover{ApproverUserID: id, OrderIndex: i})
		}
		Expect(rules.Create(ctx, r)).To(Succeed())
		return r.ID
	}

	draft := func(amount, currencyCode string, categoryID *int64) *expense.Expense {
		e := &expenseDatamodel.Expense{
			CompanyID:   companyID,
			UserID:      employee.UserID,
			CategoryID:  categoryID,
			Amount:      decimal.RequireFromString(amount),
			Currency:    currencyCode,
			ExpenseDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Description: "client visit",
			PaidBy:      expense.PaidByPersonal,
			Status:      string(expense.StatusDraft),
		}
		Expect(expenses.Create(ctx, e)).To(Succeed())
		return expense.FromDataModel(e)
	}

	approvalsOf := func(expenseID int64) []*approvalDatamodel.Approval {
		rows, err := approvals.ListByExpense(ctx, expenseID)
		Expect(err).NotTo(HaveOccurred())
		return rows
	}

	statusOf := func(expenseID int64) expense.Status {
		row, err := expenses.GetByID(ctx, expenseID)
		Expect(err).NotTo(HaveOccurred())
		return expense.Status(row.Status)
	}

	Describe("Submit", func() {
		It("auto-approves when no rule matches", func() {
			// Given
			e := draft("120.00", "EUR", nil)

			// When
			result, err := svc.Submit(ctx, e, employee.UserID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AutoApproved).To(BeTrue())
			Expect(result.RuleID).To(BeNil())
			Expect(result.ApprovalsCreated).To(BeZero())
			Expect(result.Expense.Status).To(Equal(expense.StatusApproved))
			Expect(approvalsOf(e.ID)).To(BeEmpty())
			Expect(publisher.types()).To(Equal([]string{events.EventTypeExpenseSubmitted, events.EventTypeExpenseAutoApproved}))
		})

		It("auto-approves when the matching rule has no approvers", func() {
			// Given
			ruleID := createRule("petty cash", nil, "0", "", false, 100)
			e := draft("15.00", "EUR", nil)

			// When
			result, err := svc.Submit(ctx, e, employee.UserID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AutoApproved).To(BeTrue())
			Expect(*result.RuleID).To(Equal(ruleID))
			Expect(statusOf(e.ID)).To(Equal(expense.StatusApproved))
		})

		It("creates one pending approval per approver and notifies all of them", func() {
			// Given
			ruleID := createRule("default", nil, "0", "", false, 100, 2, 3, 4)
			e := draft("300.00", "EUR", nil)

			// When
			result, err := svc.Submit(ctx, e, employee.UserID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AutoApproved).To(BeFalse())
			Expect(result.ApprovalsCreated).To(Equal(3))
			Expect(result.Expense.Status).To(Equal(expense.StatusSubmitted))
			Expect(result.Expense.SubmittedAt).NotTo(BeNil())

			rows := approvalsOf(e.ID)
			Expect(rows).To(HaveLen(3))
			for i, a := range rows {
				Expect(a.RuleID).To(Equal(ruleID))
				Expect(a.Status).To(Equal(string(approval.StatusPending)))
				Expect(a.OrderIndex).To(Equal(i))
			}
			Expect(publisher.requestedApprovers()).To(ConsistOf(int64(2), int64(3), int64(4)))
		})

		It("notifies only the first approver of a sequential rule", func() {
			// Given
			createRule("sequential", nil, "0", "", true, 100, 3, 2)
			e := draft("300.00", "EUR", nil)

			// When
			_, err := svc.Submit(ctx, e, employee.UserID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.requestedApprovers()).To(Equal([]int64{3}))
		})

		It("matches rules against the amount converted to the company currency", func() {
			// Given
			lowID := createRule("up to 450", nil, "0", "450", false, 100, 2)
			createRule("above 450", nil, "450.01", "", false, 100, 3)
			e := draft("500.00", "USD", nil)

			// When
			result, err := svc.Submit(ctx, e, employee.UserID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(*result.RuleID).To(Equal(lowID))
			Expect(result.Expense.CompanyAmount.Decimal.Equal(decimal.RequireFromString("450"))).To(BeTrue())
			Expect(result.Expense.ExchangeRate.Decimal.Equal(decimal.RequireFromString("0.9"))).To(BeTrue())
			Expect(result.Expense.Amount.Equal(decimal.RequireFromString("500"))).To(BeTrue())
			rows := approvalsOf(e.ID)
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].ApproverUserID).To(Equal(int64(2)))
		})

		It("prefers the category rule over the wildcard", func() {
			// Given
			travel := int64(7)
			createRule("default", nil, "0", "", false, 100, 2)
			travelID := createRule("travel", &travel, "0", "", false, 100, 3)
			e := draft("80.00", "EUR", &travel)

			// When
			result, err := svc.Submit(ctx, e, employee.UserID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(*result.RuleID).To(Equal(travelID))
		})

		It("leaves the draft untouched when the rate is unavailable", func() {
			// Given
			createRule("default", nil, "0", "", false, 100, 2)
			provider.err = errors.New("oracle down")
			e := draft("500.00", "USD", nil)

			// When
			result, err := svc.Submit(ctx, e, employee.UserID)

			// Then
			Expect(result).To(BeNil())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeRateUnavailable))
			Expect(appErr.Retryable).To(BeTrue())
			Expect(statusOf(e.ID)).To(Equal(expense.StatusDraft))
			Expect(approvalsOf(e.ID)).To(BeEmpty())
			Expect(publisher.events).To(BeEmpty())
		})

		It("refuses a second submission of the same draft", func() {
			// Given
			createRule("default", nil, "0", "", false, 100, 2)
			e := draft("50.00", "EUR", nil)
			_, err := svc.Submit(ctx, e, employee.UserID)
			Expect(err).NotTo(HaveOccurred())

			// When
			_, err = svc.Submit(ctx, e, employee.UserID)

			// Then
			Expect(errors.Is(err, internal.ErrInvalidExpenseStatus)).To(BeTrue())
			Expect(approvalsOf(e.ID)).To(HaveLen(1))
		})

		It("rolls back when the draft was edited after it was loaded", func() {
			// Given
			createRule("small", nil, "0", "100", false, 100, 2)
			createRule("large", nil, "100", "", false, 100, 3)
			e := draft("50.00", "EUR", nil)
			Expect(db.Model(&expenseDatamodel.Expense{}).Where("id = ?", e.ID).
				Update("amount", decimal.RequireFromString("5000.00")).Error).To(Succeed())

			// When
			_, err := svc.Submit(ctx, e, employee.UserID)

			// Then
			Expect(errors.Is(err, internal.ErrExpenseModified)).To(BeTrue())
			row, err := expenses.GetByID(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Status).To(Equal(string(expense.StatusDraft)))
			Expect(row.CompanyAmount.Valid).To(BeFalse())
			Expect(approvalsOf(e.ID)).To(BeEmpty())
			Expect(publisher.events).To(BeEmpty())
		})
	})

	Describe("decisions", func() {
		submit := func(e *expense.Expense) []*approvalDatamodel.Approval {
			_, err := svc.Submit(ctx, e, employee.UserID)
			Expect(err).NotTo(HaveOccurred())
			publisher.events = nil
			return approvalsOf(e.ID)
		}

		It("approves the expense once the percentage is reached", func() {
			// Given
			createRule("half", nil, "0", "", false, 50, 2, 3)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)

			// When
			result, err := svc.Approve(ctx, mira, rows[0].ID, approval.DecisionDTO{Comments: " ok "})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ExpenseStatus).To(Equal(expense.StatusApproved))
			Expect(result.CurrentPercentage).To(Equal(50))
			Expect(result.RequiredPercentage).To(Equal(50))
			Expect(*result.Approval.Comments).To(Equal("ok"))
			Expect(statusOf(e.ID)).To(Equal(expense.StatusApproved))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeApprovalApproved, events.EventTypeExpenseApproved}))
		})

		It("refuses further decisions on a finalized expense", func() {
			// Given
			createRule("half", nil, "0", "", false, 50, 2, 3)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)
			_, err := svc.Approve(ctx, mira, rows[0].ID, approval.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())

			// When
			_, err = svc.Approve(ctx, omar, rows[1].ID, approval.DecisionDTO{})

			// Then
			Expect(errors.Is(err, internal.ErrExpenseFinalized)).To(BeTrue())
			Expect(approvalsOf(e.ID)[1].Status).To(Equal(string(approval.StatusPending)))
		})

		It("refuses a decision when the expense is finalized while it is being recorded", func() {
			// Given
			createRule("unanimous", nil, "0", "", false, 100, 2, 3)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)
			racing := deps
			racing.Expenses = &concurrentFinalizer{
				ExpenseRepository: expenses,
				finalize: func(id int64) {
					ok, err := expenses.TransitionStatus(ctx, id, expense.StatusSubmitted, expense.StatusRejected)
					Expect(err).NotTo(HaveOccurred())
					Expect(ok).To(BeTrue())
				},
			}
			racingSvc := approval.NewService(racing)

			// When
			_, err := racingSvc.Approve(ctx, mira, rows[0].ID, approval.DecisionDTO{})

			// Then
			Expect(errors.Is(err, internal.ErrExpenseFinalized)).To(BeTrue())
			Expect(statusOf(e.ID)).To(Equal(expense.StatusRejected))
			Expect(approvalsOf(e.ID)[0].Status).To(Equal(string(approval.StatusPending)))
		})

		It("waits for every approver at 100%", func() {
			// Given
			createRule("unanimous", nil, "0", "", false, 100, 2, 3, 4)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)
			lin := &identity.Identity{UserID: 4, CompanyID: companyID, Role: identity.RoleManager}

			// When
			first, err := svc.Approve(ctx, mira, rows[0].ID, approval.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.Approve(ctx, omar, rows[1].ID, approval.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())
			third, err := svc.Approve(ctx, lin, rows[2].ID, approval.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())

			// Then
			Expect(first.ExpenseStatus).To(Equal(expense.StatusSubmitted))
			Expect(first.CurrentPercentage).To(Equal(33))
			Expect(second.ExpenseStatus).To(Equal(expense.StatusSubmitted))
			Expect(third.ExpenseStatus).To(Equal(expense.StatusApproved))
			Expect(third.Tally).To(Equal(approval.Tally{Total: 3, Approved: 3}))
		})

		It("rejects the expense on a single rejection", func() {
			// Given
			createRule("half", nil, "0", "", false, 50, 2, 3)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)

			// When
			result, err := svc.Reject(ctx, omar, rows[1].ID, approval.DecisionDTO{Comments: "no receipt"})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ExpenseStatus).To(Equal(expense.StatusRejected))
			Expect(statusOf(e.ID)).To(Equal(expense.StatusRejected))
			Expect(approvalsOf(e.ID)[0].Status).To(Equal(string(approval.StatusPending)))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeApprovalRejected, events.EventTypeExpenseRejected}))
		})

		It("requires comments to reject", func() {
			// Given
			createRule("half", nil, "0", "", false, 50, 2, 3)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)

			// When
			_, err := svc.Reject(ctx, mira, rows[0].ID, approval.DecisionDTO{Comments: "   "})

			// Then
			Expect(errors.Is(err, internal.ErrRejectionComments)).To(BeTrue())
			Expect(statusOf(e.ID)).To(Equal(expense.StatusSubmitted))
		})

		It("refuses to decide the same approval twice", func() {
			// Given
			createRule("unanimous", nil, "0", "", false, 100, 2, 3)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)
			_, err := svc.Approve(ctx, mira, rows[0].ID, approval.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())

			// When
			_, err = svc.Reject(ctx, mira, rows[0].ID, approval.DecisionDTO{Comments: "changed my mind"})

			// Then
			Expect(errors.Is(err, internal.ErrAlreadyProcessed)).To(BeTrue())
			Expect(statusOf(e.ID)).To(Equal(expense.StatusSubmitted))
		})

		It("enforces order on sequential rules", func() {
			// Given
			createRule("chain", nil, "0", "", true, 100, 2, 3)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)

			// When
			_, err := svc.Approve(ctx, omar, rows[1].ID, approval.DecisionDTO{})

			// Then
			Expect(errors.Is(err, internal.ErrOutOfOrder)).To(BeTrue())

			_, err = svc.Approve(ctx, mira, rows[0].ID, approval.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.requestedApprovers()).To(Equal([]int64{3}))

			result, err := svc.Approve(ctx, omar, rows[1].ID, approval.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ExpenseStatus).To(Equal(expense.StatusApproved))
		})

		It("only lets the assigned approver decide", func() {
			// Given
			createRule("unanimous", nil, "0", "", false, 100, 2, 3)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)

			// When
			_, err := svc.Approve(ctx, omar, rows[0].ID, approval.DecisionDTO{})

			// Then
			Expect(errors.Is(err, internal.ErrNotAssignedApprover)).To(BeTrue())
		})

		It("lets an admin decide on behalf of an approver", func() {
			// Given
			createRule("single", nil, "0", "", false, 100, 2)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)

			// When
			result, err := svc.Approve(ctx, admin, rows[0].ID, approval.DecisionDTO{})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ExpenseStatus).To(Equal(expense.StatusApproved))
			Expect(result.Approval.ApproverUserID).To(Equal(int64(2)))
		})

		It("hides approvals from another company", func() {
			// Given
			createRule("single", nil, "0", "", false, 100, 2)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)

			// When
			_, err := svc.Approve(ctx, outsider, rows[0].ID, approval.DecisionDTO{})

			// Then
			Expect(errors.Is(err, internal.ErrApprovalNotFound)).To(BeTrue())
		})

		It("keeps a full audit trail", func() {
			// Given
			createRule("half", nil, "0", "", false, 50, 2, 3)
			e := draft("200.00", "EUR", nil)
			rows := submit(e)
			_, err := svc.Approve(ctx, mira, rows[0].ID, approval.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())

			// When
			history, err := svc.History(ctx, employee, e.ID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			actions := make([]approval.AuditAction, 0, len(history))
			for _, h := range history {
				actions = append(actions, h.Action)
			}
			Expect(actions).To(Equal([]approval.AuditAction{
				approval.ActionSubmitted,
				approval.ActionApprovalCreated,
				approval.ActionApprovalCreated,
				approval.ActionApproved,
				approval.ActionExpenseApproved,
			}))
			Expect(*history[3].ActorUserID).To(Equal(mira.UserID))
		})
	})

	Describe("read side", func() {
		It("reports approval progress", func() {
			// Given
			ruleID := createRule("unanimous", nil, "0", "", false, 100, 2, 3)
			e := draft("200.00", "EUR", nil)
			_, err := svc.Submit(ctx, e, employee.UserID)
			Expect(err).NotTo(HaveOccurred())
			rows := approvalsOf(e.ID)
			_, err = svc.Approve(ctx, mira, rows[0].ID, approval.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())

			// When
			status, err := svc.GetApprovalStatus(ctx, employee, e.ID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(status.HasApprovals).To(BeTrue())
			Expect(*status.RuleID).To(Equal(ruleID))
			Expect(status.Total).To(Equal(2))
			Expect(status.Approved).To(Equal(1))
			Expect(status.Pending).To(Equal(1))
			Expect(status.ApprovalPercentage).To(Equal(50))
			Expect(status.RequiredPercentage).To(Equal(100))
		})

		It("reports an auto-approved expense without approvals", func() {
			// Given
			e := draft("20.00", "EUR", nil)
			_, err := svc.Submit(ctx, e, employee.UserID)
			Expect(err).NotTo(HaveOccurred())

			// When
			status, err := svc.GetApprovalStatus(ctx, admin, e.ID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(status.HasApprovals).To(BeFalse())
			Expect(status.ExpenseStatus).To(Equal(expense.StatusApproved))
		})

		It("hides the status from other employees", func() {
			e := draft("20.00", "EUR", nil)
			colleague := &identity.Identity{UserID: 11, CompanyID: companyID, Role: identity.RoleEmployee}

			_, err := svc.GetApprovalStatus(ctx, colleague, e.ID)
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())

			_, err = svc.GetApprovalStatus(ctx, outsider, e.ID)
			Expect(errors.Is(err, internal.ErrExpenseNotFound)).To(BeTrue())
		})

		It("scopes the approval list to the caller unless admin", func() {
			// Given
			createRule("pair", nil, "0", "", false, 100, 2, 3)
			e := draft("200.00", "EUR", nil)
			_, err := svc.Submit(ctx, e, employee.UserID)
			Expect(err).NotTo(HaveOccurred())

			// When
			mine, err := svc.ListApprovals(ctx, mira, approval.ListFilter{Limit: 20})
			Expect(err).NotTo(HaveOccurred())
			all, err := svc.ListApprovals(ctx, admin, approval.ListFilter{Limit: 20})
			Expect(err).NotTo(HaveOccurred())

			// Then
			Expect(mine).To(HaveLen(1))
			Expect(mine[0].ApproverUserID).To(Equal(mira.UserID))
			Expect(all).To(HaveLen(2))
		})

		It("shows sequential approvers whether they can act now", func() {
			// Given
			travel := int64(7)
			createRule("chain", nil, "0", "", true, 100, 2, 3)
			e := draft("200.00", "EUR", &travel)
			_, err := svc.Submit(ctx, e, employee.UserID)
			Expect(err).NotTo(HaveOccurred())

			// When
			first, err := svc.Inbox(ctx, mira, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.Inbox(ctx, omar, 20, 0)
			Expect(err).NotTo(HaveOccurred())

			// Then
			Expect(first).To(HaveLen(1))
			Expect(first[0].ExpenseID).To(Equal(e.ID))
			Expect(first[0].CanActNow).To(BeTrue())
			Expect(first[0].IsSequential).To(BeTrue())
			Expect(first[0].SubmitterName).To(Equal("Eve"))
			Expect(*first[0].CategoryName).To(Equal("travel"))
			Expect(second).To(HaveLen(1))
			Expect(second[0].CanActNow).To(BeFalse())
		})

		It("gives employees an empty inbox", func() {
			items, err := svc.Inbox(ctx, employee, 20, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(BeEmpty())
		})
	})
})
