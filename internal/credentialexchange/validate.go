package credentialexchange

import (
	"errors"
	"fmt"
)

var (
	ErrMissingArg    = errors.New("Missing required input when assuming a Role.")
	ErrMissingEnvVar = errors.New("Missing required environment value. Are you running in GitHub Actions?")
)

// ValidationError names the input or environment value that was absent.
// Unwraps to ErrMissingArg or ErrMissingEnvVar.
type ValidationError struct {
	Field string
	err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%s)", e.err.Error(), e.Field)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// IsValidationError reports whether err came from input or environment validation
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// ValidateRequest checks the inputs needed for the exchange are present.
// The identity token is fetched after validation and is checked separately.
func ValidateRequest(req ExchangeRequest) error {
	required := []struct {
		field   string
		present bool
	}{
		{"aws-region", req.Region != ""},
		{"role-to-assume", req.RoleArn != ""},
		{"role-session-name", req.SessionName != ""},
		{"role-duration-seconds", req.DurationSeconds > 0},
	}
	for _, r := range required {
		if !r.present {
			return &ValidationError{Field: r.field, err: ErrMissingArg}
		}
	}
	return nil
}

// ValidateEnvironment checks the job is running inside GitHub Actions.
// An empty value counts as missing.
func ValidateEnvironment(lookup func(string) (string, bool)) error {
	for _, name := range RequiredEnvVars {
		if v, ok := lookup(name); !ok || v == "" {
			return &ValidationError{Field: name, err: ErrMissingEnvVar}
		}
	}
	return nil
}

// ValidateToken rejects an empty identity token before it reaches STS
func ValidateToken(token string) error {
	if token == "" {
		return &ValidationError{Field: "identity-token", err: ErrMissingArg}
	}
	return nil
}
