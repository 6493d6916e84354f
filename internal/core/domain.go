package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Pending Status = "pending"
	Paid    Status = "paid"
)

const maxDescriptionLen = 200

type (
	TransactionType string

	Status string

	Transaction struct {
		ID            string          `json:"id"`
		OwnerID       string          `json:"owner_id"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		Type          TransactionType `json:"type"`
		Category      string          `json:"category"`
		Subcategory   string          `json:"subcategory,omitempty"`
		Date          Date            `json:"date"`
		Status        Status          `json:"status"`
		PaymentMethod string          `json:"payment_method,omitempty"`
		GroupID       string          `json:"group_id,omitempty"`
		CreatedAt     time.Time       `json:"created_at"`
	}

	// TransactionPatch carries a partial update. Nil fields are left alone.
	TransactionPatch struct {
		Description   *string          `json:"description,omitempty"`
		Amount        *decimal.Decimal `json:"amount,omitempty"`
		Type          *TransactionType `json:"type,omitempty"`
		Category      *string          `json:"category,omitempty"`
		Subcategory   *string          `json:"subcategory,omitempty"`
		Date          *Date            `json:"date,omitempty"`
		Status        *Status          `json:"status,omitempty"`
		PaymentMethod *string          `json:"payment_method,omitempty"`
	}

	Reminder struct {
		ID        string    `json:"id"`
		OwnerID   string    `json:"owner_id"`
		Title     string    `json:"title"`
		Date      Date      `json:"date"`
		Details   string    `json:"details,omitempty"`
		Done      bool      `json:"done"`
		CreatedAt time.Time `json:"created_at"`
	}

	ReminderPatch struct {
		Title   *string `json:"title,omitempty"`
		Date    *Date   `json:"date,omitempty"`
		Details *string `json:"details,omitempty"`
		Done    *bool   `json:"done,omitempty"`
	}

	Category struct {
		ID            string   `json:"id"`
		OwnerID       string   `json:"owner_id,omitempty"`
		Name          string   `json:"name" yaml:"name"`
		Color         string   `json:"color" yaml:"color"`
		Subcategories []string `json:"subcategories" yaml:"subcategories"`
	}

	CategoryPatch struct {
		Name          *string   `json:"name,omitempty"`
		Color         *string   `json:"color,omitempty"`
		Subcategories *[]string `json:"subcategories,omitempty"`
	}

	PaymentMethod struct {
		ID      string `json:"id"`
		OwnerID string `json:"owner_id,omitempty"`
		Name    string `json:"name"`
		Color   string `json:"color"`
	}

	PaymentMethodPatch struct {
		Name  *string `json:"name,omitempty"`
		Color *string `json:"color,omitempty"`
	}

	// User is the authenticated identity every record is scoped to.
	User struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name,omitempty"`
	}
)

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyDescription     = errors.New("empty description")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrEmptyCategory        = errors.New("empty category")
	ErrInvalidRepetition    = errors.New("invalid repetition mode")
	ErrInvalidInstallments  = errors.New("invalid installment count")
	ErrSeriesPatch          = errors.New("a series edit can only change description, amount, type or category")
	ErrEmptyTitle           = errors.New("empty title")
	ErrEmptyName            = errors.New("empty name")
	ErrInvalidColor         = errors.New("invalid color")
	ErrEmptyOwner           = errors.New("empty owner")
	ErrDuplicateCategory    = errors.New("category name already exists")
	ErrDuplicatePaymentName = errors.New("payment method name already exists")
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// IsValidationError reports whether err is one of the input validation
// errors above. The HTTP layer maps those to 422.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrEmptyDescription, ErrDescriptionTooLong,
		ErrInvalidType, ErrInvalidStatus, ErrEmptyCategory, ErrInvalidRepetition,
		ErrInvalidInstallments, ErrEmptyTitle, ErrEmptyName, ErrInvalidColor,
		ErrEmptyOwner, ErrDuplicateCategory, ErrDuplicatePaymentName, ErrSeriesPatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (s Status) Validate() error {
	switch s {
	case Pending, Paid:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// Toggle flips pending and paid.
func (s Status) Toggle() Status {
	if s == Paid {
		return Pending
	}
	return Paid
}

func validateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return t.Status.Validate()
}

// Signed returns the amount with the sign implied by the type. Amounts are
// never stored negative.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Validate checks only the fields the patch sets.
func (p TransactionPatch) Validate() error {
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Type != nil {
		if err := p.Type.Validate(); err != nil {
			return err
		}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return ErrEmptyCategory
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := p.Status.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p == TransactionPatch{}
}

// Apply returns a copy of t with the patch applied.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Subcategory != nil {
		t.Subcategory = *p.Subcategory
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = *p.PaymentMethod
	}
	return t
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	return r.Date.Validate()
}

func (p ReminderPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Date != nil {
		return p.Date.Validate()
	}
	return nil
}

func (p ReminderPatch) Apply(r Reminder) Reminder {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Details != nil {
		r.Details = *p.Details
	}
	if p.Done != nil {
		r.Done = *p.Done
	}
	return r
}

func validateColor(c string) error {
	if c != "" && !colorPattern.MatchString(c) {
		return ErrInvalidColor
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return validateColor(c.Color)
}

func (p CategoryPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrEmptyName
	}
	if p.Color != nil {
		return validateColor(*p.Color)
	}
	return nil
}

func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Subcategories != nil {
		c.Subcategories = append([]string(nil), (*p.Subcategories)...)
	}
	return c
}

func (m PaymentMethod) Validate() error {
	if strings.TrimSpace(m.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return validateColor(m.Color)
}

func (p PaymentMethodPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrEmptyName
	}
	if p.Color != nil {
		return validateColor(*p.Color)
	}
	return nil
}

func (p PaymentMethodPatch) Apply(m PaymentMethod) PaymentMethod {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Color != nil {
		m.Color = *p.Color
	}
	return m
}
