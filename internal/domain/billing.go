package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TokenPackage is a purchasable bundle of tokens.
type TokenPackage struct {
	Tokens  int64
	Price   decimal.Decimal
	Bonus   string
	Popular bool
}

var tokenPackages = []TokenPackage{
	{Tokens: 1000, Price: decimal.RequireFromString("1.00")},
	{Tokens: 2500, Price: decimal.RequireFromString("2.00"), Bonus: "20% bonus"},
	{Tokens: 5000, Price: decimal.RequireFromString("3.50"), Bonus: "43% bonus", Popular: true},
	{Tokens: 10000, Price: decimal.RequireFromString("6.00"), Bonus: "67% bonus"},
}

// TokenPackages returns a copy of the catalogue ordered by size.
func TokenPackages() []TokenPackage {
	out := make([]TokenPackage, len(tokenPackages))
	copy(out, tokenPackages)
	return out
}

// FindTokenPackage looks up the package selling exactly the given number of tokens.
func FindTokenPackage(tokens int64) (TokenPackage, error) {
	for _, p := range tokenPackages {
		if p.Tokens == tokens {
			return p, nil
		}
	}
	return TokenPackage{}, ErrUnknownPackage
}

// AmountCents converts the price to the smallest currency unit.
func (p TokenPackage) AmountCents() int64 {
	return p.Price.Shift(2).Round(0).IntPart()
}

// Label renders the package size for display, e.g. "1,000 tokens".
func (p TokenPackage) Label(tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf("%d tokens", p.Tokens)
}

// PurchaseStatus tracks whether a payment has been turned into tokens.
type PurchaseStatus string

const (
	PurchasePending  PurchaseStatus = "pending"
	PurchaseCredited PurchaseStatus = "credited"
)

// Purchase records a payment intent and the tokens it buys. The payment
// intent id is the idempotency key for crediting.
type Purchase struct {
	PaymentIntentID string
	UserID          string
	Tokens          int64
	AmountCents     int64
	Currency        string
	Status          PurchaseStatus
	CreatedAt       time.Time
	CreditedAt      *time.Time
}

// CreditResult reports the outcome of applying a purchase to a balance.
type CreditResult struct {
	PaymentIntentID string
	UserID          string
	TokensAdded     int64
	Balance         int64
	AlreadyApplied  bool
}
