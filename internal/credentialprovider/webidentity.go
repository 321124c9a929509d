package credentialprovider

import (
	"context"
	"fmt"
	"os/user"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
)

const (
	webIdentityTokenFileVar = "AWS_WEB_IDENTITY_TOKEN_FILE"
	roleArnVar              = "AWS_ROLE_ARN"
	roleSessionNameVar      = "AWS_ROLE_SESSION_NAME"

	webIdentitySessionSuffix = "configure-aws-credentials"
)

// WebIdentityClientFunc builds the STS client used to exchange the token file
type WebIdentityClientFunc func(ctx context.Context) (stscreds.AssumeRoleWithWebIdentityAPIClient, error)

// WebIdentityTokenFileSource assumes AWS_ROLE_ARN with the token found in
// AWS_WEB_IDENTITY_TOKEN_FILE, as on EKS pods and other OIDC federated runners.
type WebIdentityTokenFileSource struct {
	lookup    lookupFunc
	newClient WebIdentityClientFunc
}

func NewWebIdentityTokenFileSource(lookup func(string) (string, bool), newClient WebIdentityClientFunc) *WebIdentityTokenFileSource {
	return &WebIdentityTokenFileSource{lookup: orLookupEnv(lookup), newClient: newClient}
}

func (w *WebIdentityTokenFileSource) Name() string { return "web-identity-file" }

func (w *WebIdentityTokenFileSource) sessionName() string {
	if name := w.lookup.get(roleSessionNameVar); name != "" {
		return name
	}
	u, err := user.Current()
	if err != nil {
		return webIdentitySessionSuffix
	}
	return fmt.Sprintf("%s-%s", u.Username, webIdentitySessionSuffix)
}

func (w *WebIdentityTokenFileSource) Retrieve(ctx context.Context) (aws.Credentials, error) {
	tokenFile := w.lookup.get(webIdentityTokenFileVar)
	roleArn := w.lookup.get(roleArnVar)
	if tokenFile == "" || roleArn == "" || w.newClient == nil {
		return aws.Credentials{}, ErrSourceNotFound
	}

	svc, err := w.newClient(ctx)
	if err != nil {
		return aws.Credentials{}, err
	}
	provider := stscreds.NewWebIdentityRoleProvider(svc, roleArn, stscreds.IdentityTokenFile(tokenFile), func(o *stscreds.WebIdentityRoleOptions) {
		o.RoleSessionName = w.sessionName()
	})
	creds, err := provider.Retrieve(ctx)
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("failed to retrieve STS credentials using %s: %w", tokenFile, err)
	}
	return creds, nil
}
