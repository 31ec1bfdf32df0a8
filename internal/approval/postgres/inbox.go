package postgres

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/approval"
	"github.com/jmoiron/sqlx"
)

// can_act_now is false while a sequential rule still waits on a lower order_index.
const inboxQuery = `
SELECT
	a.id            AS approval_id,
	a.expense_id    AS expense_id,
	a.rule_id       AS rule_id,
	r.name          AS rule_name,
	a.order_index   AS order_index,
	r.is_sequential AS is_sequential,
	CASE WHEN r.is_sequential AND EXISTS (
		SELECT 1 FROM approvals p
		WHERE p.expense_id = a.expense_id
		  AND p.rule_id = a.rule_id
		  AND p.status = 'pending'
		  AND p.order_index < a.order_index
	) THEN 0 ELSE 1 END AS can_act_now,
	e.user_id        AS submitter_id,
	u.name           AS submitter_name,
	c.name           AS category_name,
	e.description    AS description,
	e.amount         AS amount,
	e.currency       AS currency,
	e.company_amount AS company_amount,
	e.submitted_at   AS submitted_at,
	a.created_at     AS requested_at
FROM approvals a
JOIN expenses e ON e.id = a.expense_id
JOIN users u ON u.id = e.user_id
JOIN approval_rules r ON r.id = a.rule_id
LEFT JOIN categories c ON c.id = e.category_id
WHERE a.approver_user_id = ?
  AND a.status = 'pending'
  AND e.status = 'submitted'
  AND e.company_id = ?
ORDER BY e.submitted_at ASC, a.id ASC
LIMIT ? OFFSET ?`

// InboxReader is the read model behind the approver's inbox.
type InboxReader struct {
	db *sqlx.DB
}

func NewInboxReader(db *sqlx.DB) *InboxReader {
	return &InboxReader{db: db}
}

var _ approval.InboxReader = (*InboxReader)(nil)

func (r *InboxReader) Inbox(ctx context.Context, companyID, approverID int64, limit, offset int) ([]*approval.InboxItem, error) {
	items := []*approval.InboxItem{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(inboxQuery), approverID, companyID, limit, offset); err != nil {
		return nil, internal.NewStorageError("approval", approverID, "inbox", err)
	}
	return items, nil
}
