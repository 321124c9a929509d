package credentialexchange

const (
	SELF_NAME = "configure-aws-credentials"

	DEFAULT_ROLE_SESSION_NAME = "GitHubActions"
	// The max time a GitHub Actions job may run is 6 hours, an hour
	// covers the typical job without asking for the role maximum.
	DEFAULT_ROLE_DURATION_SECONDS = 3600
	DEFAULT_AUDIENCE              = "sts.amazonaws.com"

	AWS_ACCESS_KEY_ID_VAR     = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY_VAR = "AWS_SECRET_ACCESS_KEY"
	AWS_SESSION_TOKEN_VAR     = "AWS_SESSION_TOKEN"
)

// RequiredEnvVars must be present in any GitHub Actions job
var RequiredEnvVars = []string{
	"GITHUB_REPOSITORY",
	"GITHUB_WORKFLOW",
	"GITHUB_ACTION",
	"GITHUB_ACTOR",
	"GITHUB_SHA",
}

type CredentialConfig struct {
	Region              string
	RoleToAssume        string
	RoleSessionName     string
	RoleDurationSeconds int
	Audience            string
}
