package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	ruleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	categoryDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/category"
	companyDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/company"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo company, its users, categories and approval rules from a YAML fixture.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		fixtures, err := loadFixtures(seedFile)
		if err != nil {
			log.Fatalf("failed to load fixtures: %v", err)
		}

		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		cost := cfg.Security.BCryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}

		if err := seed(context.Background(), db, fixtures, cost); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
	},
}

type seedFixtures struct {
	Company struct {
		Name     string `yaml:"name"`
		Currency string `yaml:"currency"`
	} `yaml:"company"`
	Password   string         `yaml:"password"`
	Users      []seedUser     `yaml:"users"`
	Categories []seedCategory `yaml:"categories"`
	Rules      []seedRule     `yaml:"rules"`
}

type seedUser struct {
	Email   string `yaml:"email"`
	Name    string `yaml:"name"`
	Role    string `yaml:"role"`
	Manager string `yaml:"manager"`
}

type seedCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type seedRule struct {
	Name       string   `yaml:"name"`
	Category   string   `yaml:"category"`
	MinAmount  string   `yaml:"min_amount"`
	MaxAmount  string   `yaml:"max_amount"`
	Sequential bool     `yaml:"sequential"`
	Percentage int      `yaml:"percentage"`
	Approvers  []string `yaml:"approvers"`
}

func loadFixtures(path string) (*seedFixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Company.Name == "" || len(f.Company.Currency) != 3 {
		return nil, errors.New("company name and a 3-letter currency are required")
	}
	if f.Password == "" {
		f.Password = "password"
	}
	return &f, nil
}

func seed(ctx context.Context, db *gorm.DB, f *seedFixtures, cost int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing companyDatamodel.Company
		err := tx.Where("name = ?", f.Company.Name).First(&existing).Error
		switch {
		case err == nil && !clearData:
			fmt.Println("company already seeded; rerun with --clear to recreate:", f.Company.Name)
			return nil
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("clear company: %w", err)
			}
			fmt.Println("Cleared company:", existing.Name)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		company := &companyDatamodel.Company{Name: f.Company.Name, CurrencyCode: f.Company.Currency}
		if err := tx.Create(company).Error; err != nil {
			return fmt.Errorf("insert company: %w", err)
		}
		fmt.Println("Seeded company:", company.Name)

		hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), cost)
		if err != nil {
			return err
		}

		users := make(map[string]*userDatamodel.User, len(f.Users))
		for _, u := range f.Users {
			row := &userDatamodel.User{
				CompanyID:    company.ID,
				Email:        u.Email,
				Name:         u.Name,
				PasswordHash: string(hash),
				Role:         u.Role,
				IsActive:     true,
			}
			if u.Manager != "" {
				manager, ok := users[u.Manager]
				if !ok {
					return fmt.Errorf("user %s: manager %s must be listed first", u.Email, u.Manager)
				}
				row.ManagerID = &manager.ID
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("insert user %s: %w", u.Email, err)
			}
			users[u.Email] = row
			fmt.Println("Seeded user:", u.Email, "role:", u.Role)
		}

		categories := make(map[string]int64, len(f.Categories))
		for _, c := range f.Categories {
			row := &categoryDatamodel.ExpenseCategory{CompanyID: company.ID, Name: c.Name, Description: c.Description, IsActive: true}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("insert category %s: %w", c.Name, err)
			}
			categories[c.Name] = row.ID
		}
		fmt.Println("Seeded categories:", len(categories))

		for _, r := range f.Rules {
			rule, err := seedRuleRow(company, r, categories, users)
			if err != nil {
				return err
			}
			if err := tx.Create(rule).Error; err != nil {
				return fmt.Errorf("insert rule %s: %w", r.Name, err)
			}
			fmt.Println("Seeded rule:", r.Name, "approvers:", len(rule.Approvers))
		}
		return nil
	})
}

func seedRuleRow(company *companyDatamodel.Company, r seedRule, categories map[string]int64, users map[string]*userDatamodel.User) (*ruleDatamodel.ApprovalRule, error) {
	rule := &ruleDatamodel.ApprovalRule{
		CompanyID:          company.ID,
		Name:               r.Name,
		CurrencyCode:       company.CurrencyCode,
		IsSequential:       r.Sequential,
		ApprovalPercentage: r.Percentage,
		IsActive:           true,
	}
	if rule.ApprovalPercentage == 0 {
		rule.ApprovalPercentage = 100
	}
	if r.Category != "" {
		id, ok := categories[r.Category]
		if !ok {
			return nil, fmt.Errorf("rule %s: unknown category %s", r.Name, r.Category)
		}
		rule.CategoryID = &id
	}
	if r.MinAmount != "" {
		lo, err := decimal.NewFromString(r.MinAmount)
		if err != nil {
			return nil, fmt.Errorf("rule %s: min_amount: %w", r.Name, err)
		}
		rule.MinAmount = lo
	}
	if r.MaxAmount != "" {
		hi, err := decimal.NewFromString(r.MaxAmount)
		if err != nil {
			return nil, fmt.Errorf("rule %s: max_amount: %w", r.Name, err)
		}
		rule.MaxAmount = decimal.NewNullDecimal(hi)
	}
	for i, email := range r.Approvers {
		u, ok := users[email]
		if !ok {
			return nil, fmt.Errorf("rule %s: unknown approver %s", r.Name, email)
		}
		rule.Approvers = append(rule.Approvers, ruleDatamodel.RuleApprover{ApproverUserID: u.ID, OrderIndex: i})
	}
	return rule, nil
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "db/seed/fixtures.yml", "YAML fixture to seed from")
}
