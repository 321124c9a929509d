// Package actions adapts the GitHub Actions runner protocol, workflow
// commands, the GITHUB_OUTPUT file and the OIDC token endpoint, to the
// toolkit the credential flow depends on.
package actions

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sethvargo/go-githubactions"
)

const (
	OutputFileVar  = "GITHUB_OUTPUT"
	RunnerDebugVar = "RUNNER_DEBUG"
)

var ErrMissingEnvVar = errors.New("missing actions environment variable")

// Toolkit is the subset of @actions/core this tool relies on
type Toolkit struct {
	action   *githubactions.Action
	out      io.Writer
	lookup   func(string) (string, bool)
	client   *http.Client
	debug    bool
	exitCode int
}

type Option func(*Toolkit)

// WithWriter sends workflow commands to w instead of stdout
func WithWriter(w io.Writer) Option {
	return func(t *Toolkit) {
		t.out = w
	}
}

func WithLookup(lookup func(string) (string, bool)) Option {
	return func(t *Toolkit) {
		t.lookup = lookup
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(t *Toolkit) {
		t.client = client
	}
}

// WithDebug forces debug output regardless of RUNNER_DEBUG
func WithDebug(debug bool) Option {
	return func(t *Toolkit) {
		t.debug = debug
	}
}

func New(opts ...Option) *Toolkit {
	t := &Toolkit{
		out:    os.Stdout,
		lookup: os.LookupEnv,
		client: http.DefaultClient,
	}
	for _, o := range opts {
		o(t)
	}
	if t.getenv(RunnerDebugVar) == "1" {
		t.debug = true
	}
	t.action = githubactions.New(
		githubactions.WithWriter(t.out),
		githubactions.WithGetenv(t.getenv),
		githubactions.WithHTTPClient(t.client),
	)
	return t
}

func (t *Toolkit) getenv(key string) string {
	v, _ := t.lookup(key)
	return v
}

// InputEnvName is the variable the runner exposes an action input under
func InputEnvName(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// GetInput returns the trimmed value of an action input, empty when unset
func (t *Toolkit) GetInput(name string) string {
	return t.action.GetInput(name)
}

func (t *Toolkit) IsDebug() bool {
	return t.debug
}

// SetSecret registers v with the runner so it is masked in the log
func (t *Toolkit) SetSecret(v string) {
	t.action.AddMask(v)
}

// SetOutput publishes a step output. The GITHUB_OUTPUT file is preferred,
// the deprecated set-output command is the fallback.
func (t *Toolkit) SetOutput(name, value string) {
	t.action.SetOutput(name, value)
}

// Debug lines are only shown when the runner has step debugging on
func (t *Toolkit) Debug(msg string) {
	t.action.Debugf("%s", msg)
}

func (t *Toolkit) Info(msg string) {
	t.action.Infof("%s", msg)
}

func (t *Toolkit) Warning(msg string) {
	t.action.Warningf("%s", msg)
}

// SetFailed logs msg as an error and marks the step as failed. Unlike
// Fatalf it leaves exiting to the caller.
func (t *Toolkit) SetFailed(msg string) {
	t.exitCode = 1
	t.action.Errorf("%s", msg)
}

// ExitCode is 1 once SetFailed has been called
func (t *Toolkit) ExitCode() int {
	return t.exitCode
}
