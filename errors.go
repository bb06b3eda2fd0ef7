package brushgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorKind classifies generation failures.
type ErrorKind string

const (
	// KindConfig covers bad descriptors: missing or empty script attribute,
	// illegal names, or a host type that is not an interface.
	KindConfig ErrorKind = "config"

	// KindResource covers script lookup and read failures.
	KindResource ErrorKind = "resource"

	// KindScript covers evaluation failures and a missing alias.
	KindScript ErrorKind = "script"
)

var (
	// ErrUnableToComplete matches every generation failure. Callers that only
	// need to know whether a type was generated can test for it with errors.Is.
	ErrUnableToComplete = errors.New("unable to complete")

	// ErrNoAlias is reported when the brush script registers no alias.
	ErrNoAlias = errors.New("no alias found")
)

// Error is a failed generation of one host type.
type Error struct {
	Kind    ErrorKind
	Type    string // qualified host type name, if known
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Type != "" {
		b.WriteString(": ")
		b.WriteString(e.Type)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is makes every *Error match ErrUnableToComplete.
func (e *Error) Is(target error) bool {
	return target == ErrUnableToComplete
}

// Errorf creates an error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// withType returns a copy of e attributed to the host type name.
func (e *Error) withType(name string) *Error {
	cp := *e
	cp.Type = name
	return &cp
}

// withCause returns a copy of e wrapping cause.
func (e *Error) withCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// configError flattens validator output into a single configuration error.
func configError(err error) *Error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return Errorf(KindConfig, "invalid descriptor").withCause(err)
	}
	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		messages = append(messages, ve.Field()+": "+formatValidationError(ve))
	}
	return Errorf(KindConfig, "%s", strings.Join(messages, "; "))
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "notblank":
		return "must not be blank"
	case "javaqualified":
		return fmt.Sprintf("%q is not a qualified Java name", ve.Value())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
