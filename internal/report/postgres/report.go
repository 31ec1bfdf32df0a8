package postgres

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/frahmantamala/expense-approval/internal/report"
	"github.com/jmoiron/sqlx"
)

const approvalRowsQuery = `
SELECT
	e.id             AS expense_id,
	u.name           AS submitter_name,
	c.name           AS category_name,
	e.amount         AS amount,
	e.currency       AS currency,
	e.company_amount AS company_amount,
	e.status         AS status,
	e.submitted_at   AS submitted_at,
	(SELECT COUNT(*) FROM approvals a WHERE a.expense_id = e.id AND a.status = 'approved') AS approved_count,
	(SELECT COUNT(*) FROM approvals a WHERE a.expense_id = e.id) AS total_count
FROM expenses e
JOIN users u ON u.id = e.user_id
LEFT JOIN categories c ON c.id = e.category_id
WHERE e.company_id = ?
  AND e.status <> 'draft'`

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

var _ report.Repository = (*ReportRepository)(nil)

func (r *ReportRepository) ApprovalRows(ctx context.Context, companyID int64, status expense.Status) ([]*report.Row, error) {
	query := approvalRowsQuery
	args := []interface{}{companyID}
	if status != "" {
		query += "\n  AND e.status = ?"
		args = append(args, string(status))
	}
	query += "\nORDER BY e.submitted_at ASC, e.id ASC"

	rows := []*report.Row{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, internal.NewStorageError("expense", companyID, "approval_report", err)
	}
	return rows, nil
}
