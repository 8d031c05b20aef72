package finance

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/erp/accounting/internal/domain/shared/valueobject"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

// Validator returns the request validator shared by services and HTTP binding.
// Besides the built-in rules it knows "decimal" (a decimal string with at
// most valueobject.Scale fractional digits), "nonneg" (the same, >= 0) and
// "currency" (an ISO-4217 code).
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && valueobject.FitsScale(d)
		})
		_ = v.RegisterValidation("nonneg", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && valueobject.FitsScale(d) && !d.IsNegative()
		})
		_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
			_, err := valueobject.ParseCurrency(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// ValidateRequest checks req against its validate tags and reports every
// violated rule in one VALIDATION_FAILED error
func ValidateRequest(req any) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.NewDomainError(shared.ErrValidationFailed.Code, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return shared.NewDomainError(shared.ErrValidationFailed.Code, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "decimal":
		return fmt.Sprintf("%s must be a decimal number with at most %d fractional digits", field, valueobject.Scale)
	case "nonneg":
		return fmt.Sprintf("%s must be a non-negative decimal number with at most %d fractional digits", field, valueobject.Scale)
	case "currency":
		return fmt.Sprintf("%s must be an ISO-4217 currency code", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "max", "gt", "gte", "lt", "lte", "len":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed on %s", field, fe.Tag())
}

// parseAmount converts a validated decimal string into an amount
func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := valueobject.ParseAmount(s)
	if err != nil {
		return decimal.Zero, shared.NewDomainError(shared.ErrValidationFailed.Code, fmt.Sprintf("%s: %v", field, err))
	}
	return d, nil
}

// parseOptionalAmount treats an empty string as zero
func parseOptionalAmount(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return parseAmount(field, s)
}

// parseCurrency converts a currency code, defaulting to USD
func parseCurrency(code string) (valueobject.Currency, error) {
	cur, err := valueobject.ParseCurrency(code)
	if err != nil {
		return "", shared.NewDomainError(shared.ErrValidationFailed.Code, err.Error())
	}
	return cur, nil
}
