// Package validate performs the client-side shape checks that run before
// any request leaves the process.
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"estatemetrics/internal/domain/models"

	"github.com/go-playground/validator/v10"
)

const MinPasswordLen = 3

var validate = validator.New(validator.WithRequiredStructEnabled())

// Error lists the offending fields with a human-readable message each.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

var messages = map[string]string{
	"required": "The field '%s' is required.",
	"email":    "The field '%s' must be a valid email address.",
	"min":      "The field '%s' must be at least %s characters long.",
	"max":      "The field '%s' must be no longer than %s characters.",
	"gt":       "The field '%s' must be greater than %s.",
	"gte":      "The field '%s' must be greater than or equal to %s.",
	"lte":      "The field '%s' must be less than or equal to %s.",
	"eqfield":  "The field '%s' must match '%s'.",
	"oneof":    "The field '%s' must be one of %s.",
	"datetime": "The field '%s' must be a date in %s format.",
}

func parseMessage(field string, e validator.FieldError) string {
	msg, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("Field '%s' is invalid: %s", field, e.Tag())
	}

	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, field, e.Param())
	}

	return fmt.Sprintf(msg, field)
}

func toError(err error, names map[string]string) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &Error{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		name, ok := names[fe.StructField()]
		if !ok {
			name = fe.Field()
		}
		out.Fields[name] = parseMessage(name, fe)
	}

	return out
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=3"`
}

// Credentials checks a login or registration form.
func Credentials(email, password string) error {
	return toError(validate.Struct(credentials{Email: strings.TrimSpace(email), Password: password}),
		map[string]string{"Email": "email", "Password": "password"})
}

type changePassword struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,min=3"`
	ConfirmPassword string `validate:"omitempty,eqfield=NewPassword"`
}

// ChangePassword checks the form; the confirmation is optional but must match when given.
func ChangePassword(req models.ChangePasswordRequest) error {
	return toError(validate.Struct(changePassword(req)), map[string]string{
		"CurrentPassword": "currentPassword",
		"NewPassword":     "newPassword",
		"ConfirmPassword": "confirmPassword",
	})
}

// Estate checks a new estate.
func Estate(req models.EstateRequest) error {
	return toError(validate.Struct(req), map[string]string{
		"EstateTypeID": "estate_type_id",
		"Name":         "name",
		"Description":  "description",
	})
}

type transaction struct {
	EstateID          int64   `validate:"gt=0"`
	TransactionTypeID int64   `validate:"gt=0"`
	Amount            float64 `validate:"gt=0"`
	Regularity        int     `validate:"oneof=0 1"`
	Direction         int     `validate:"oneof=0 1"`
	Date              string  `validate:"omitempty,datetime=2006-01-02"`
	StartDate         string  `validate:"omitempty,datetime=2006-01-02"`
	PaymentDay        int     `validate:"omitempty,gte=1,lte=31"`
	ContractDuration  string  `validate:"omitempty,oneof=short long"`
}

var transactionFields = map[string]string{
	"EstateID":          "estate_id",
	"TransactionTypeID": "transaction_type_id",
	"Amount":            "amount",
	"Regularity":        "regularity",
	"Direction":         "direction",
	"Date":              "date",
	"StartDate":         "start_date",
	"PaymentDay":        "payment_day",
	"ContractDuration":  "contract_duration",
}

// Transaction checks a one-time payment or a regular schedule. One-time
// payments need a date; regular ones need a start date and a payment day.
func Transaction(tx models.Transaction) error {
	err := toError(validate.Struct(transaction{
		EstateID:          tx.EstateID,
		TransactionTypeID: tx.TransactionTypeID,
		Amount:            tx.Amount,
		Regularity:        tx.Regularity,
		Direction:         tx.Direction,
		Date:              tx.Date,
		StartDate:         tx.StartDate,
		PaymentDay:        tx.PaymentDay,
		ContractDuration:  tx.ContractDuration,
	}), transactionFields)

	var out *Error
	switch {
	case err == nil:
		out = &Error{Fields: map[string]string{}}
	case errors.As(err, &out):
	default:
		return err
	}

	required := func(name string) {
		if _, ok := out.Fields[name]; !ok {
			out.Fields[name] = fmt.Sprintf(messages["required"], name)
		}
	}

	switch tx.Regularity {
	case models.RegularityOneTime:
		if tx.Date == "" {
			required("date")
		}
	case models.RegularityRegular:
		if tx.StartDate == "" {
			required("start_date")
		}
		if tx.PaymentDay == 0 {
			required("payment_day")
		}
	}

	if len(out.Fields) == 0 {
		return nil
	}

	return out
}
