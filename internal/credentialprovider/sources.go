package credentialprovider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go-v2/credentials/endpointcreds"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	ini "gopkg.in/ini.v1"
)

const (
	sharedCredentialsFileVar = "AWS_SHARED_CREDENTIALS_FILE"
	profileVar               = "AWS_PROFILE"
	containerFullUriVar      = "AWS_CONTAINER_CREDENTIALS_FULL_URI"
	containerRelativeUriVar  = "AWS_CONTAINER_CREDENTIALS_RELATIVE_URI"
	containerAuthTokenVar    = "AWS_CONTAINER_AUTHORIZATION_TOKEN"
	metadataDisabledVar      = "AWS_EC2_METADATA_DISABLED"

	containerHost  = "http://169.254.170.2"
	defaultProfile = "default"
)

type lookupFunc func(string) (string, bool)

func orLookupEnv(lookup lookupFunc) lookupFunc {
	if lookup == nil {
		return os.LookupEnv
	}
	return lookup
}

func (l lookupFunc) get(key string) string {
	v, _ := l(key)
	return strings.TrimSpace(v)
}

// static turns a key triple into credentials, a lone id or secret is malformed
func static(ctx context.Context, id, secret, token string) (aws.Credentials, error) {
	if id == "" && secret == "" {
		return aws.Credentials{}, ErrSourceNotFound
	}
	if id == "" || secret == "" {
		return aws.Credentials{}, fmt.Errorf("access key id and secret access key must both be set, %w", ErrMalformedCredentials)
	}
	return credentials.NewStaticCredentialsProvider(id, secret, token).Retrieve(ctx)
}

// EnvSource reads the fixed AWS credential variables
type EnvSource struct {
	lookup lookupFunc
}

// NewEnvSource reads from lookup, os.LookupEnv when nil
func NewEnvSource(lookup func(string) (string, bool)) *EnvSource {
	return &EnvSource{lookup: orLookupEnv(lookup)}
}

func (e *EnvSource) Name() string { return "env" }

func (e *EnvSource) Retrieve(ctx context.Context) (aws.Credentials, error) {
	return static(ctx,
		e.lookup.get("AWS_ACCESS_KEY_ID"),
		e.lookup.get("AWS_SECRET_ACCESS_KEY"),
		e.lookup.get("AWS_SESSION_TOKEN"))
}

// SharedCredentialsFileSource reads a profile from the shared credentials ini file
type SharedCredentialsFileSource struct {
	lookup  lookupFunc
	homeDir func() (string, error)
}

func NewSharedCredentialsFileSource(lookup func(string) (string, bool), homeDir func() (string, error)) *SharedCredentialsFileSource {
	if homeDir == nil {
		homeDir = os.UserHomeDir
	}
	return &SharedCredentialsFileSource{lookup: orLookupEnv(lookup), homeDir: homeDir}
}

func (s *SharedCredentialsFileSource) Name() string { return "shared-file" }

func (s *SharedCredentialsFileSource) filePath() (string, error) {
	if overridden := s.lookup.get(sharedCredentialsFileVar); overridden != "" {
		return overridden, nil
	}
	home, err := s.homeDir()
	if err != nil {
		return "", err
	}
	return path.Join(home, ".aws", "credentials"), nil
}

func (s *SharedCredentialsFileSource) Retrieve(ctx context.Context) (aws.Credentials, error) {
	credsPath, err := s.filePath()
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("%s, %w", err, ErrSourceNotFound)
	}
	if _, err := os.Stat(credsPath); errors.Is(err, fs.ErrNotExist) {
		return aws.Credentials{}, ErrSourceNotFound
	}

	cfg, err := ini.Load(credsPath)
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("fail to read %s: %s, %w", credsPath, err, ErrMalformedCredentials)
	}

	profile := s.lookup.get(profileVar)
	if profile == "" {
		profile = defaultProfile
	}
	if !cfg.HasSection(profile) {
		return aws.Credentials{}, ErrSourceNotFound
	}
	section := cfg.Section(profile)
	return static(ctx,
		section.Key("aws_access_key_id").String(),
		section.Key("aws_secret_access_key").String(),
		section.Key("aws_session_token").String())
}

// ContainerSource reads credentials from the ECS/CodeBuild container endpoint
type ContainerSource struct {
	lookup lookupFunc
	client endpointcreds.HTTPClient
}

// NewContainerSource uses client for the endpoint call, the SDK default when nil
func NewContainerSource(lookup func(string) (string, bool), client endpointcreds.HTTPClient) *ContainerSource {
	return &ContainerSource{lookup: orLookupEnv(lookup), client: client}
}

func (c *ContainerSource) Name() string { return "container" }

func (c *ContainerSource) endpoint() string {
	if full := c.lookup.get(containerFullUriVar); full != "" {
		return full
	}
	if rel := c.lookup.get(containerRelativeUriVar); rel != "" {
		return containerHost + rel
	}
	return ""
}

func (c *ContainerSource) Retrieve(ctx context.Context) (aws.Credentials, error) {
	endpoint := c.endpoint()
	if endpoint == "" {
		return aws.Credentials{}, ErrSourceNotFound
	}
	provider := endpointcreds.New(endpoint, func(o *endpointcreds.Options) {
		o.AuthorizationToken = c.lookup.get(containerAuthTokenVar)
		if c.client != nil {
			o.HTTPClient = c.client
		}
	})
	return provider.Retrieve(ctx)
}

// InstanceMetadataSource reads the instance profile credentials from IMDS
type InstanceMetadataSource struct {
	lookup   lookupFunc
	endpoint string
}

// NewInstanceMetadataSource talks to endpoint, the SDK default IMDS address when empty
func NewInstanceMetadataSource(lookup func(string) (string, bool), endpoint string) *InstanceMetadataSource {
	return &InstanceMetadataSource{lookup: orLookupEnv(lookup), endpoint: endpoint}
}

func (i *InstanceMetadataSource) Name() string { return "imds" }

func (i *InstanceMetadataSource) Retrieve(ctx context.Context) (aws.Credentials, error) {
	if strings.EqualFold(i.lookup.get(metadataDisabledVar), "true") {
		return aws.Credentials{}, ErrSourceNotFound
	}
	provider := ec2rolecreds.New(func(o *ec2rolecreds.Options) {
		o.Client = imds.New(imds.Options{Endpoint: i.endpoint})
	})
	creds, err := provider.Retrieve(ctx)
	if err != nil {
		// not running on an instance with a profile
		return aws.Credentials{}, fmt.Errorf("%s, %w", err, ErrSourceNotFound)
	}
	return creds, nil
}
