package credentialexchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

var (
	ErrUnableAssume         = errors.New("unable to assume")
	ErrUnableSessionCreate  = errors.New("unable to create a sesion")
	ErrIncompleteStsResonse = errors.New("sts response missing credentials")
)

// AuthWebTokenApi is the part of the STS client used for the exchange
type AuthWebTokenApi interface {
	AssumeRoleWithWebIdentity(ctx context.Context, params *sts.AssumeRoleWithWebIdentityInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleWithWebIdentityOutput, error)
}

// NewStsClient returns an STS client pinned to the regional endpoint of region.
// SDK level retries are switched off, retrying is left to the caller.
func NewStsClient(ctx context.Context, region string, provider aws.CredentialsProvider, optFns ...func(*sts.Options)) (*sts.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(provider),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load config for region %s: %s, %w", region, err, ErrUnableSessionCreate)
	}
	return sts.NewFromConfig(cfg, optFns...), nil
}

// assumeError carries the provider's message unchanged and unwraps to both
// the provider error and ErrUnableAssume
type assumeError struct {
	err error
}

func (e *assumeError) Error() string {
	return e.err.Error()
}

func (e *assumeError) Unwrap() []error {
	return []error{e.err, ErrUnableAssume}
}

// LoginAwsWebToken exchanges the web identity token in req for temporary credentials.
// It does not look at why a call failed, every failure is ErrUnableAssume
// and reads as the provider's own message.
func LoginAwsWebToken(ctx context.Context, req ExchangeRequest, svc AuthWebTokenApi) (*AWSCredentials, error) {
	input := &sts.AssumeRoleWithWebIdentityInput{
		RoleArn:          aws.String(req.RoleArn),
		RoleSessionName:  aws.String(req.SessionName),
		DurationSeconds:  aws.Int32(req.DurationSeconds),
		WebIdentityToken: aws.String(req.IdentityToken),
	}

	resp, err := svc.AssumeRoleWithWebIdentity(ctx, input)
	if err != nil {
		return nil, &assumeError{err: err}
	}

	if resp.Credentials == nil || resp.AssumedRoleUser == nil {
		return nil, fmt.Errorf("%w, %w", ErrIncompleteStsResonse, ErrUnableAssume)
	}

	return &AWSCredentials{
		AWSAccessKey:    aws.ToString(resp.Credentials.AccessKeyId),
		AWSSecretKey:    aws.ToString(resp.Credentials.SecretAccessKey),
		AWSSessionToken: aws.ToString(resp.Credentials.SessionToken),
		AssumedRoleId:   aws.ToString(resp.AssumedRoleUser.AssumedRoleId),
		PrincipalARN:    aws.ToString(resp.AssumedRoleUser.Arn),
		Expires:         aws.ToTime(resp.Credentials.Expiration).Local(),
	}, nil
}

// ErrorCode returns the AWS API error code carried by err, if any
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
