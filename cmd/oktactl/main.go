package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schubergphilis/oktalib-go/cmd/oktactl/commands"
	"github.com/schubergphilis/oktalib-go/pkg/logging"
)

var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "oktactl",
	Short: "Okta identity management CLI",
	Long: `A command-line interface for managing Okta groups, users and
applications through the Okta API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().String("host", "", "Okta org URL, e.g. https://example.okta.com")
	rootCmd.PersistentFlags().String("token", "", "Okta API token")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for shared rate-limit state and response cache")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", false, "human-readable log output")

	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	viper.BindPFlag("redis", rootCmd.PersistentFlags().Lookup("redis"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("pretty", rootCmd.PersistentFlags().Lookup("pretty"))

	viper.SetEnvPrefix("OKTA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(commands.NewGroupsCommand())
	rootCmd.AddCommand(commands.NewUsersCommand())
	rootCmd.AddCommand(commands.NewAppsCommand())
	rootCmd.AddCommand(newVersionCommand())
}

func initLogging() {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(viper.GetString("log-level")),
		Pretty: viper.GetBool("pretty"),
		Output: os.Stderr,
	})
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("oktactl %s (%s)\n", version, commit)
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
