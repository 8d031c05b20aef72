package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Scale is the number of fractional digits every monetary amount is held at
const Scale int32 = 8

// Currency is an ISO-4217 currency code
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CNY Currency = "CNY"
	JPY Currency = "JPY"
)

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// DefaultCurrency is used whenever a request or event omits a currency
const DefaultCurrency = USD

var (
	ErrEmptyAmount      = errors.New("amount cannot be empty")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrAmountScale      = fmt.Errorf("amount has more than %d fractional digits", Scale)
)

// ParseCurrency validates an ISO-4217 code. An empty code yields DefaultCurrency.
func ParseCurrency(code string) (Currency, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultCurrency, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// ParseAmount parses a decimal string such as "500.00000000".
// Binary floating point never takes part in the conversion, and input
// finer than Scale is rejected rather than rounded.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal amount %q: %w", s, err)
	}
	if !FitsScale(d) {
		return decimal.Zero, fmt.Errorf("invalid decimal amount %q: %w", s, ErrAmountScale)
	}
	return d, nil
}

// FitsScale reports whether d is representable at Scale digits without
// rounding. Trailing zeros beyond Scale are accepted.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}

// ParseAmountOrZero parses s and treats empty or malformed input as zero
func ParseAmountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RoundAmount rounds half away from zero to Scale digits
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// FormatAmount renders d with exactly Scale fractional digits
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// SumAmounts adds the given amounts exactly
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Money is an amount in a currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a Money rounded to Scale digits
func NewMoney(amount decimal.Decimal, cur Currency) (Money, error) {
	if cur == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: RoundAmount(amount), currency: cur}, nil
}

// NewMoneyFromString parses a decimal string into Money
func NewMoneyFromString(amount string, cur Currency) (Money, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(d, cur)
}

// MustMoney is NewMoney for amounts known to be valid
func MustMoney(amount decimal.Decimal, cur Currency) Money {
	m, err := NewMoney(amount, cur)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns zero in the given currency
func Zero(cur Currency) Money {
	return Money{amount: decimal.Zero, currency: cur}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// Add returns m + other. Both must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns m - other. Both must share a currency.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply returns m * factor rounded to Scale digits
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: RoundAmount(m.amount.Mul(factor)), currency: m.currency}
}

// Divide returns m / divisor rounded to Scale digits
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	return Money{amount: m.amount.DivRound(divisor, Scale), currency: m.currency}, nil
}

// Equals compares amount and currency exactly
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Cmp compares two amounts of the same currency
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, ErrCurrencyMismatch
	}
	return m.amount.Cmp(other.amount), nil
}

// GreaterThan reports m > other
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c > 0, err
}

// LessThan reports m < other
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c < 0, err
}

// String renders the amount at Scale digits followed by the currency
func (m Money) String() string {
	return FormatAmount(m.amount) + " " + string(m.currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON encodes the amount as a fixed-scale decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: FormatAmount(m.amount), Currency: m.currency})
}

// UnmarshalJSON decodes {"amount":"...","currency":"..."}
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
