package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/desertthunder/moovie/internal/shared"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	emailPattern = regexp.MustCompile(`^[\w-]+(\.[\w-]+)*@([\w-]+\.)+[a-zA-Z]{2,7}$`)
)

// PasswordRule is one of the password strength requirements.
type PasswordRule struct {
	Name  string
	Label string
	Check func(string) bool
}

// PasswordRules are checked in order; a password must satisfy all of them.
var PasswordRules = []PasswordRule{
	{Name: "length", Label: "at least 8 characters", Check: func(p string) bool { return len([]rune(p)) >= 8 }},
	{Name: "upper", Label: "an uppercase letter", Check: hasRune(unicode.IsUpper)},
	{Name: "lower", Label: "a lowercase letter", Check: hasRune(unicode.IsLower)},
	{Name: "digit", Label: "a number", Check: hasRune(unicode.IsDigit)},
	{Name: "symbol", Label: "a symbol", Check: hasRune(func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
	})},
}

func hasRune(pred func(rune) bool) func(string) bool {
	return func(s string) bool {
		return strings.IndexFunc(s, pred) >= 0
	}
}

// PasswordRuleFailures returns the rules p does not satisfy. An empty result means p is acceptable.
func PasswordRuleFailures(p string) []PasswordRule {
	var failed []PasswordRule
	for _, rule := range PasswordRules {
		if !rule.Check(p) {
			failed = append(failed, rule)
		}
	}
	return failed
}

// ValidEmail reports whether s matches the accepted email format.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// FieldError is a single failed validation rule.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

func (e FieldError) Error() string { return e.Message }

// ValidationError collects the field errors of one input. It wraps [shared.ErrValidation].
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		messages[i] = f.Message
	}
	return fmt.Sprintf("%v: %s", shared.ErrValidation, strings.Join(messages, "; "))
}

func (e *ValidationError) Unwrap() error { return shared.ErrValidation }

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Validator returns the shared validator with the application's custom tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterValidation("moovie_email", func(fl validator.FieldLevel) bool {
			return ValidEmail(fl.Field().String())
		})
		validate.RegisterValidation("moovie_password", func(fl validator.FieldLevel) bool {
			return len(PasswordRuleFailures(fl.Field().String())) == 0
		})
	})

	return validate
}

// Validate checks s against its validate tags, returning a [*ValidationError] on failure.
func Validate(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	out := &ValidationError{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: translate(fe)}
	}
	return out
}

func translate(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "moovie_email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "moovie_password":
		p, _ := fe.Value().(string)
		labels := []string{}
		for _, rule := range PasswordRuleFailures(p) {
			labels = append(labels, rule.Label)
		}
		return fmt.Sprintf("%s must contain %s", field, strings.Join(labels, ", "))
	case "eqfield":
		return "passwords do not match"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// ValidateComment checks a comment body before it is posted. Text is trimmed in place.
func ValidateComment(in *CommentInput) error {
	in.Text = strings.TrimSpace(in.Text)
	return Validate(in)
}

// ValidateRegistration checks a sign-up body, including the password confirmation.
func ValidateRegistration(r *Registration) error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	return Validate(r)
}
