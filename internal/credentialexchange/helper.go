package credentialexchange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RoleDuration parses role-duration-seconds.
// Empty, unparsable and zero values fall back to the default; zero is never
// taken as an explicit duration. Negative values are kept so validation
// rejects them. Values outside int32 are clamped to its bounds and passed on,
// STS rejects a duration above the role's maximum.
func RoleDuration(raw string) int32 {
	d, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		return int32(d)
	}
	if err != nil || d == 0 {
		return DEFAULT_ROLE_DURATION_SECONDS
	}
	return int32(d)
}

// SessionName falls back to the default session name when none is given
func SessionName(name string) string {
	if strings.TrimSpace(name) == "" {
		return DEFAULT_ROLE_SESSION_NAME
	}
	return name
}

// Environment maps the fixed AWS variable names to the credential values
func (c AWSCredentials) Environment() map[string]string {
	return map[string]string{
		AWS_ACCESS_KEY_ID_VAR:     c.AWSAccessKey,
		AWS_SECRET_ACCESS_KEY_VAR: c.AWSSecretKey,
		AWS_SESSION_TOKEN_VAR:     c.AWSSessionToken,
	}
}

// SetEnvironment writes the credentials into the process environment
// in a fixed order using setenv.
func SetEnvironment(creds *AWSCredentials, setenv func(key, value string) error) error {
	env := creds.Environment()
	for _, k := range []string{AWS_ACCESS_KEY_ID_VAR, AWS_SECRET_ACCESS_KEY_VAR, AWS_SESSION_TOKEN_VAR} {
		if err := setenv(k, env[k]); err != nil {
			return fmt.Errorf("unable to set %s: %w", k, err)
		}
	}
	return nil
}
