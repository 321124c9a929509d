package actions

import (
	"context"
	"errors"
	"fmt"
)

const (
	IdTokenRequestUrlVar   = "ACTIONS_ID_TOKEN_REQUEST_URL"
	IdTokenRequestTokenVar = "ACTIONS_ID_TOKEN_REQUEST_TOKEN"
)

var ErrIdToken = errors.New("failed to get ID Token")

// GetIDToken fetches the job's OIDC token for audience. The token is masked
// before it is returned.
func (t *Toolkit) GetIDToken(ctx context.Context, audience string) (string, error) {
	for _, key := range []string{IdTokenRequestUrlVar, IdTokenRequestTokenVar} {
		if t.getenv(key) == "" {
			return "", fmt.Errorf("unable to get %s env variable, %w, %w", key, ErrMissingEnvVar, ErrIdToken)
		}
	}

	token, err := t.action.GetIDToken(ctx, audience)
	if err != nil {
		return "", fmt.Errorf("%s, %w", err, ErrIdToken)
	}
	if token == "" {
		return "", fmt.Errorf("response json body do not have ID Token field, %w", ErrIdToken)
	}

	t.SetSecret(token)
	return token, nil
}
