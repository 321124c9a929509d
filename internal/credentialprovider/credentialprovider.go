// Package credentialprovider holds the process wide credential state and the
// ordered chain of sources it is resolved from.
//
// Sources are evaluated first to last:
//
//	env                AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN
//	shared-file        AWS_SHARED_CREDENTIALS_FILE or ~/.aws/credentials, profile AWS_PROFILE
//	container          AWS_CONTAINER_CREDENTIALS_FULL_URI / _RELATIVE_URI
//	web-identity-file  AWS_WEB_IDENTITY_TOKEN_FILE + AWS_ROLE_ARN
//	imds               EC2 instance metadata
//
// A source that has nothing to offer returns ErrSourceNotFound and the next one
// is tried. Any other error stops the chain.
package credentialprovider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
)

var (
	ErrSourceNotFound       = errors.New("no credentials in source")
	ErrNoCredentials        = errors.New("no credentials found in any source")
	ErrMalformedCredentials = errors.New("malformed credentials")
	ErrRefresh              = errors.New("unable to refresh credentials")
)

// Source is a single link in the resolution chain
type Source interface {
	Name() string
	Retrieve(ctx context.Context) (aws.Credentials, error)
}

// Chain resolves credentials from the first source that has them
type Chain []Source

func (c Chain) Retrieve(ctx context.Context) (aws.Credentials, error) {
	for _, src := range c {
		creds, err := src.Retrieve(ctx)
		if err == nil {
			creds.Source = src.Name()
			return creds, nil
		}
		if errors.Is(err, ErrSourceNotFound) {
			continue
		}
		return aws.Credentials{}, fmt.Errorf("%s: %w", src.Name(), err)
	}
	return aws.Credentials{}, ErrNoCredentials
}

// State is the credential state shared by every SDK client in the process.
// It satisfies aws.CredentialsProvider and is built lazily on first use.
type State struct {
	mu    sync.Mutex
	chain Chain
	cache *aws.CredentialsCache
}

// New returns a State resolving from sources in the given order
func New(sources ...Source) *State {
	return &State{chain: sources}
}

// Invalidate throws away the cache as a whole, including the provider kind
// that produced it.
func (s *State) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

// Resolve builds a fresh cache over the chain and waits for it to resolve
func (s *State) Resolve(ctx context.Context) error {
	cache := aws.NewCredentialsCache(s.chain)
	if _, err := cache.Retrieve(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = cache
	return nil
}

// Refresh discards the current state and re-resolves it from the chain.
// Run once after new credentials are written to the environment.
func (s *State) Refresh(ctx context.Context) error {
	s.Invalidate()
	if err := s.Resolve(ctx); err != nil {
		return fmt.Errorf("%w, %w", err, ErrRefresh)
	}
	return nil
}

// Retrieve implements aws.CredentialsProvider
func (s *State) Retrieve(ctx context.Context) (aws.Credentials, error) {
	s.mu.Lock()
	if s.cache == nil {
		s.cache = aws.NewCredentialsCache(s.chain)
	}
	cache := s.cache
	s.mu.Unlock()
	return cache.Retrieve(ctx)
}

// DefaultSources is the chain used outside of tests. webIdentity may be nil,
// the token file source is then never used.
func DefaultSources(webIdentity WebIdentityClientFunc) []Source {
	return []Source{
		NewEnvSource(nil),
		NewSharedCredentialsFileSource(nil, nil),
		NewContainerSource(nil, nil),
		NewWebIdentityTokenFileSource(nil, webIdentity),
		NewInstanceMetadataSource(nil, ""),
	}
}
