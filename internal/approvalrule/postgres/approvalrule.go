package postgres

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	approvalDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approval"
	ruleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func orderedApprovers(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC")
}

// Create inserts the rule together with its approvers.
func (r *RuleRepository) Create(ctx context.Context, rule *ruleDatamodel.ApprovalRule) error {
	if err := database.Conn(ctx, r.db).Create(rule).Error; err != nil {
		return internal.NewStorageError("approval_rule", nil, "create", err)
	}
	return nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id int64) (*ruleDatamodel.ApprovalRule, error) {
	var rule ruleDatamodel.ApprovalRule
	err := database.Conn(ctx, r.db).
		Preload("Approvers", orderedApprovers).
		Where("id = ?", id).
		First(&rule).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrRuleNotFound
		}
		return nil, internal.NewStorageError("approval_rule", id, "get", err)
	}
	return &rule, nil
}

func (r *RuleRepository) List(ctx context.Context, companyID int64, filter approvalrule.ListFilter) ([]*ruleDatamodel.ApprovalRule, error) {
	query := database.Conn(ctx, r.db).
		Preload("Approvers", orderedApprovers).
		Where("company_id = ?", companyID)
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	var rules []*ruleDatamodel.ApprovalRule
	if err := query.Order("name ASC, id ASC").Find(&rules).Error; err != nil {
		return nil, internal.NewStorageError("approval_rule", nil, "list", err)
	}
	return rules, nil
}

// ListActive orders by creation so the matcher breaks ties oldest first.
func (r *RuleRepository) ListActive(ctx context.Context, companyID int64) ([]*ruleDatamodel.ApprovalRule, error) {
	var rules []*ruleDatamodel.ApprovalRule
	err := database.Conn(ctx, r.db).
		Preload("Approvers", orderedApprovers).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, internal.NewStorageError("approval_rule", nil, "list_active", err)
	}
	return rules, nil
}

func (r *RuleRepository) Update(ctx context.Context, rule *ruleDatamodel.ApprovalRule) error {
	result := database.Conn(ctx, r.db).
		Model(&ruleDatamodel.ApprovalRule{}).
		Where("id = ?", rule.ID).
		Updates(map[string]interface{}{
			"name":                rule.Name,
			"category_id":         rule.CategoryID,
			"currency_code":       rule.CurrencyCode,
			"min_amount":          rule.MinAmount,
			"max_amount":          rule.MaxAmount,
			"priority":            rule.Priority,
			"is_sequential":       rule.IsSequential,
			"approval_percentage": rule.ApprovalPercentage,
			"is_active":           rule.IsActive,
		})
	if result.Error != nil {
		return internal.NewStorageError("approval_rule", rule.ID, "update", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrRuleNotFound
	}
	return nil
}

// ReplaceApprovers swaps the whole approver list; run it inside a transaction.
func (r *RuleRepository) ReplaceApprovers(ctx context.Context, ruleID int64, approvers []ruleDatamodel.RuleApprover) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Where("rule_id = ?", ruleID).Delete(&ruleDatamodel.RuleApprover{}).Error; err != nil {
		return internal.NewStorageError("approval_rule_approver", ruleID, "delete", err)
	}
	if len(approvers) == 0 {
		return nil
	}
	if err := conn.Create(&approvers).Error; err != nil {
		return internal.NewStorageError("approval_rule_approver", ruleID, "create", err)
	}
	return nil
}

func (r *RuleRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := database.Conn(ctx, r.db).
		Model(&approvalDatamodel.Approval{}).
		Where("rule_id = ?", id).
		Count(&n).Error
	if err != nil {
		return false, internal.NewStorageError("approval", id, "count_by_rule", err)
	}
	return n > 0, nil
}

// Delete removes the rule and its approver rows.
func (r *RuleRepository) Delete(ctx context.Context, id int64) error {
	result := database.Conn(ctx, r.db).
		Select(clause.Associations).
		Delete(&ruleDatamodel.ApprovalRule{ID: id})
	if result.Error != nil {
		return internal.NewStorageError("approval_rule", id, "delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrRuleNotFound
	}
	return nil
}

func (r *RuleRepository) Deactivate(ctx context.Context, id int64) error {
	result := database.Conn(ctx, r.db).
		Model(&ruleDatamodel.ApprovalRule{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return internal.NewStorageError("approval_rule", id, "deactivate", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrRuleNotFound
	}
	return nil
}
