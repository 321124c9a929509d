package credentialexchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var ErrIdentityLookup = errors.New("unable to resolve caller identity")

// CallerIdentityApi is the part of the STS client used to look up the account
type CallerIdentityApi interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// ResolveAccountId returns the account of whichever credentials svc signs with.
// Failures are returned straight away, the credentials are known to be fresh
// so a failure here is a permissions or network problem.
func ResolveAccountId(ctx context.Context, svc CallerIdentityApi) (string, error) {
	identity, err := svc.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("%w, %w", err, ErrIdentityLookup)
	}
	account := aws.ToString(identity.Account)
	if account == "" {
		return "", fmt.Errorf("empty account in GetCallerIdentity response, %w", ErrIdentityLookup)
	}
	return account, nil
}
