package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/dnitsch/configure-aws-credentials/internal/actions"
	"github.com/dnitsch/configure-aws-credentials/internal/cmdutils"
	"github.com/dnitsch/configure-aws-credentials/internal/credentialexchange"
	"github.com/dnitsch/configure-aws-credentials/internal/credentialprovider"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	regionKey          = "aws-region"
	roleKey            = "role-to-assume"
	sessionNameKey     = "role-session-name"
	durationSecondsKey = "role-duration-seconds"
	audienceKey        = "audience"
)

var (
	cfgFile string
	verbose bool
	toolkit *actions.Toolkit
	// initErr holds a config failure from initConfig until RunE can return it
	initErr error
	RootCmd = &cobra.Command{
		Use:   credentialexchange.SELF_NAME,
		Short: "Configure AWS credentials in GitHub Actions using the job's OIDC token",
		Long: `Exchanges the GitHub Actions OIDC token for temporary AWS credentials via STS AssumeRoleWithWebIdentity.
The credentials are masked and published as step outputs, exported to the process environment
and the account id of the assumed role is published as aws-account-id.
Inputs are read from flags, INPUT_* environment variables or a config file, in that order.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          configureCredentials,
	}
)

// Execute runs the root command, any error fails the step
func Execute(ctx context.Context) {
	if err := RootCmd.ExecuteContext(ctx); err != nil {
		if toolkit == nil {
			toolkit = actions.New()
		}
		toolkit.SetFailed(err.Error())
		os.Exit(toolkit.ExitCode())
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file with the inputs, yaml or any format viper understands")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output, also enabled by RUNNER_DEBUG=1")
	RootCmd.Flags().String(regionKey, "", "AWS region of the STS endpoint")
	RootCmd.Flags().String(roleKey, "", "ARN of the role to assume")
	RootCmd.Flags().String(sessionNameKey, credentialexchange.DEFAULT_ROLE_SESSION_NAME, "Session name of the assumed role")
	RootCmd.Flags().String(durationSecondsKey, "", "Role session duration in seconds, empty or 0 means 3600")
	RootCmd.Flags().String(audienceKey, credentialexchange.DEFAULT_AUDIENCE, "Audience of the OIDC token")

	for _, key := range []string{regionKey, roleKey, sessionNameKey, durationSecondsKey, audienceKey} {
		cobra.CheckErr(viper.BindPFlag(key, RootCmd.Flags().Lookup(key)))
		cobra.CheckErr(viper.BindEnv(key, actions.InputEnvName(key)))
	}
}

func initConfig() {
	initErr = nil
	toolkit = actions.New(actions.WithDebug(verbose))
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		initErr = fmt.Errorf("unable to read config file %s: %w", cfgFile, err)
		return
	}
	toolkit.Debug("Using config file: " + viper.ConfigFileUsed())
}

func credentialConfig() credentialexchange.CredentialConfig {
	return credentialexchange.CredentialConfig{
		Region:              viper.GetString(regionKey),
		RoleToAssume:        viper.GetString(roleKey),
		RoleSessionName:     viper.GetString(sessionNameKey),
		RoleDurationSeconds: int(credentialexchange.RoleDuration(viper.GetString(durationSecondsKey))),
		Audience:            viper.GetString(audienceKey),
	}
}

func configureCredentials(cmd *cobra.Command, args []string) error {
	if initErr != nil {
		return initErr
	}
	conf := credentialConfig()
	webIdentity := func(ctx context.Context) (stscreds.AssumeRoleWithWebIdentityAPIClient, error) {
		return credentialexchange.NewStsClient(ctx, conf.Region, aws.AnonymousCredentials{})
	}
	deps := cmdutils.Deps{
		Toolkit: toolkit,
		State:   credentialprovider.New(credentialprovider.DefaultSources(webIdentity)...),
		ExchangeClient: func(ctx context.Context, region string) (credentialexchange.AuthWebTokenApi, error) {
			return credentialexchange.NewStsClient(ctx, region, aws.AnonymousCredentials{})
		},
		IdentityClient: func(ctx context.Context, region string, provider aws.CredentialsProvider) (credentialexchange.CallerIdentityApi, error) {
			return credentialexchange.NewStsClient(ctx, region, provider)
		},
		Logger: toolkit.Logger().WithName(credentialexchange.SELF_NAME),
	}
	return cmdutils.ConfigureCredentials(cmd.Context(), conf, deps)
}
