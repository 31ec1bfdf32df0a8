package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Approvals"

var columns = []string{
	"Expense ID", "Submitter", "Category", "Amount", "Currency",
	"Company Amount", "Status", "Submitted At", "Approved", "Total Approvals",
}

// Row is one expense that has left draft, with its approval counts.
type Row struct {
	ExpenseID     int64               `db:"expense_id"`
	SubmitterName string              `db:"submitter_name"`
	CategoryName  *string             `db:"category_name"`
	Amount        decimal.Decimal     `db:"amount"`
	Currency      string              `db:"currency"`
	CompanyAmount decimal.NullDecimal `db:"company_amount"`
	Status        string              `db:"status"`
	SubmittedAt   *time.Time          `db:"submitted_at"`
	Approved      int                 `db:"approved_count"`
	Total         int                 `db:"total_count"`
}

type Repository interface {
	ApprovalRows(ctx context.Context, companyID int64, status expense.Status) ([]*Row, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ApprovalRows is restricted to managers and admins; an empty status means every non-draft expense.
func (s *Service) ApprovalRows(ctx context.Context, caller *identity.Identity, status expense.Status) ([]*Row, error) {
	if !caller.Role.SeesCompany() {
		return nil, internal.ErrUnauthorizedAccess
	}
	if status != "" && (!status.Valid() || status == expense.StatusDraft) {
		return nil, internal.NewValidationFieldError("status", "status must be one of: submitted, approved, rejected", internal.ErrCodeValidationFailed)
	}

	rows, err := s.repo.ApprovalRows(ctx, caller.CompanyID, status)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load approval report", "company_id", caller.CompanyID, "error", err)
		return nil, err
	}
	return rows, nil
}

// WriteXLSX renders rows as a single sheet workbook.
func WriteXLSX(w io.Writer, rows []*Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	for i, title := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, title)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range rows {
		line := i + 2
		category := ""
		if r.CategoryName != nil {
			category = *r.CategoryName
		}
		companyAmount := ""
		if r.CompanyAmount.Valid {
			companyAmount = r.CompanyAmount.Decimal.StringFixed(2)
		}
		submittedAt := ""
		if r.SubmittedAt != nil {
			submittedAt = r.SubmittedAt.UTC().Format(time.RFC3339)
		}

		values := []interface{}{
			r.ExpenseID, r.SubmitterName, category, r.Amount.StringFixed(2), r.Currency,
			companyAmount, r.Status, submittedAt, r.Approved, r.Total,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, line)
			f.SetCellValue(SheetName, cell, v)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "J", 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return f.Write(w)
}
