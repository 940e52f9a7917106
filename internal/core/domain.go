package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// MaxDescriptionLen is the maximum description length after trimming.
const MaxDescriptionLen = 150

// DefaultMaxAmountCents is the default amount ceiling ($1,000,000).
const DefaultMaxAmountCents int64 = 100_000_000

type (
	Kind string

	Category string

	// Transaction is a single income or expense record.
	Transaction struct {
		ID          string
		Kind        Kind
		AmountCents int64
		Description string
		Category    Category
		Date        time.Time
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Filter selects a subset of transactions. Zero-valued fields are
	// unconstrained; Start and End are inclusive bounds.
	Filter struct {
		Kind     Kind
		Category Category
		Start    time.Time
		End      time.Time
	}
)

var (
	ErrInvalidKind      = errors.New("Type must be either income or expense")
	ErrInvalidAmount    = errors.New("Amount must be a positive number greater than 0")
	ErrAmountTooLarge   = errors.New("Amount exceeds maximum limit of $1,000,000")
	ErrEmptyDescription = errors.New("Description is required and must be between 1-150 characters")
	ErrInvalidCategory  = errors.New("Invalid category selected")
	ErrInvalidDate      = errors.New("Date must be in valid ISO format")
)

// Categories is the single category vocabulary shared by the validation and
// persistence layers. Labels are kind-independent in storage; clients only
// use the kind to suggest a subset.
var Categories = []Category{
	"Salary",
	"Bonus",
	"Freelancing / Consulting",
	"Business",
	"Rental Income",
	"Investments",
	"Dividends",
	"Interest Income",
	"Refunds / Reimbursements",
	"Gifts",
	"Other Income",
	"Groceries",
	"Transport",
	"Utilities",
	"Rent",
	"Medical",
	"Insurance",
	"Dining",
	"Entertainment",
	"Shopping",
	"Subscriptions",
	"Travel",
	"Debt Repayment",
	"Loan EMI",
	"Taxes",
	"Savings & Investments",
	"Education",
	"Childcare",
	"Gifts & Donations",
	"Family & Kids",
	"Personal Care",
	"Household",
	"Pet Care",
	"Other Expense",
}

var categorySet = func() map[Category]struct{} {
	m := make(map[Category]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	return m
}()

var idPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ValidID reports whether s is a well-formed transaction identifier
// (24 hexadecimal characters).
func ValidID(s string) bool {
	return idPattern.MatchString(s)
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (c Category) Valid() bool {
	_, ok := categorySet[c]
	return ok
}

// Validate checks the transaction against the record schema and the amount
// ceiling. Rules run in a fixed order and the first failure wins.
func (t Transaction) Validate(maxAmountCents int64) error {
	errs := t.ValidateAll(maxAmountCents)
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ValidateAll runs every rule and returns all violations in rule order:
// kind, amount, description, category, date.
func (t Transaction) ValidateAll(maxAmountCents int64) []error {
	if maxAmountCents <= 0 {
		maxAmountCents = DefaultMaxAmountCents
	}
	var errs []error
	if !t.Kind.Valid() {
		errs = append(errs, ErrInvalidKind)
	}
	if t.AmountCents < 1 {
		errs = append(errs, ErrInvalidAmount)
	} else if t.AmountCents > maxAmountCents {
		errs = append(errs, ErrAmountTooLarge)
	}
	desc := strings.TrimSpace(t.Description)
	if n := utf8.RuneCountInString(desc); n == 0 || n > MaxDescriptionLen {
		errs = append(errs, ErrEmptyDescription)
	}
	if !t.Category.Valid() {
		errs = append(errs, ErrInvalidCategory)
	}
	if t.Date.IsZero() {
		errs = append(errs, ErrInvalidDate)
	}
	return errs
}
