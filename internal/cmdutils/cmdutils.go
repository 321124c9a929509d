package cmdutils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/dnitsch/configure-aws-credentials/internal/backoff"
	"github.com/dnitsch/configure-aws-credentials/internal/credentialexchange"
	"github.com/go-logr/logr"
)

const (
	OutputAccessKeyId     = "aws-access-key-id"
	OutputSecretAccessKey = "aws-secret-access-key"
	OutputSessionToken    = "aws-session-token"
	OutputRoleId          = "aws-role-id"
	OutputAccountId       = "aws-account-id"
)

var ErrMissingDependency = errors.New("missing dependency")

// Toolkit is the runner facing side of the flow
type Toolkit interface {
	GetIDToken(ctx context.Context, audience string) (string, error)
	SetSecret(value string)
	SetOutput(name, value string)
}

// CredentialState is the process credential state re-resolved after the
// new credentials are put in the environment
type CredentialState interface {
	aws.CredentialsProvider
	Refresh(ctx context.Context) error
}

type ExchangeClientFunc func(ctx context.Context, region string) (credentialexchange.AuthWebTokenApi, error)

type IdentityClientFunc func(ctx context.Context, region string, provider aws.CredentialsProvider) (credentialexchange.CallerIdentityApi, error)

// Deps are the collaborators of ConfigureCredentials
type Deps struct {
	Toolkit        Toolkit
	State          CredentialState
	ExchangeClient ExchangeClientFunc
	IdentityClient IdentityClientFunc
	// Setenv defaults to os.Setenv
	Setenv func(key, value string) error
	// Lookup defaults to os.LookupEnv
	Lookup  func(string) (string, bool)
	Logger  logr.Logger
	Backoff []backoff.Option
}

func (d *Deps) defaults() error {
	if d.Toolkit == nil || d.State == nil || d.ExchangeClient == nil || d.IdentityClient == nil {
		return fmt.Errorf("toolkit, state and both sts clients are required, %w", ErrMissingDependency)
	}
	if d.Setenv == nil {
		d.Setenv = os.Setenv
	}
	if d.Lookup == nil {
		d.Lookup = os.LookupEnv
	}
	return nil
}

// ConfigureCredentials exchanges the job's OIDC token for role credentials,
// publishes them, puts them in the environment, refreshes the process
// credential state and publishes the account id.
// Errors are returned as produced by the failing step.
func ConfigureCredentials(ctx context.Context, conf credentialexchange.CredentialConfig, deps Deps) error {
	if err := deps.defaults(); err != nil {
		return err
	}
	log := deps.Logger

	req := credentialexchange.ExchangeRequest{
		Region:          conf.Region,
		RoleArn:         conf.RoleToAssume,
		SessionName:     credentialexchange.SessionName(conf.RoleSessionName),
		DurationSeconds: int32(conf.RoleDurationSeconds),
	}
	if err := credentialexchange.ValidateRequest(req); err != nil {
		return err
	}
	if err := credentialexchange.ValidateEnvironment(deps.Lookup); err != nil {
		return err
	}

	audience := conf.Audience
	if audience == "" {
		audience = credentialexchange.DEFAULT_AUDIENCE
	}
	log.V(1).Info("Getting ID token")
	token, err := deps.Toolkit.GetIDToken(ctx, audience)
	if err != nil {
		return err
	}
	if err := credentialexchange.ValidateToken(token); err != nil {
		return err
	}
	req.IdentityToken = token

	svc, err := deps.ExchangeClient(ctx, req.Region)
	if err != nil {
		return err
	}

	log.V(1).Info("Assuming role", KeyRegion, req.Region, KeyRoleArn, req.RoleArn, KeySessionName, req.SessionName)
	opts := append(append([]backoff.Option{}, deps.Backoff...), backoff.WithNotify(func(attempt int, err error, delay time.Duration) {
		log.V(1).Info("assume role failed, retrying", KeyAttempt, attempt, KeyDelay, delay.String(), KeyErrorCode, credentialexchange.ErrorCode(err))
	}))
	creds, err := backoff.Execute(ctx, func(ctx context.Context) (*credentialexchange.AWSCredentials, error) {
		return credentialexchange.LoginAwsWebToken(ctx, req, svc)
	}, opts...)
	if err != nil {
		return err
	}

	deps.Toolkit.SetSecret(creds.AWSAccessKey)
	deps.Toolkit.SetSecret(creds.AWSSecretKey)
	deps.Toolkit.SetSecret(creds.AWSSessionToken)
	log.V(1).Info("Assumed role", KeyRoleId, creds.AssumedRoleId, KeyExpiration, creds.Expires.Format(time.RFC3339))

	publish(deps.Toolkit, [][2]string{
		{OutputAccessKeyId, creds.AWSAccessKey},
		{OutputSecretAccessKey, creds.AWSSecretKey},
		{OutputSessionToken, creds.AWSSessionToken},
		{OutputRoleId, creds.AssumedRoleId},
	})

	if err := credentialexchange.SetEnvironment(creds, deps.Setenv); err != nil {
		return err
	}
	if err := deps.State.Refresh(ctx); err != nil {
		return err
	}
	if resolved, err := deps.State.Retrieve(ctx); err == nil {
		log.V(1).Info("Credentials refreshed", KeySource, resolved.Source)
	}

	idSvc, err := deps.IdentityClient(ctx, req.Region, deps.State)
	if err != nil {
		return err
	}
	accountId, err := credentialexchange.ResolveAccountId(ctx, idSvc)
	if err != nil {
		return err
	}
	deps.Toolkit.SetOutput(OutputAccountId, accountId)
	return nil
}

func publish(tk Toolkit, outputs [][2]string) {
	for _, o := range outputs {
		tk.SetOutput(o[0], o[1])
	}
}
