package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tyemirov/hoteldesk/pkg/apiclient"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "hoteldesk",
		Short:             "Admin console for the hotel management service",
		SilenceUsage:      true,
		PersistentPreRunE: prepareCLIConfig,
	}

	rootCmd.PersistentFlags().String("api_base_url", apiclient.DefaultBaseURL, "Base URL of the hotel REST service")
	rootCmd.PersistentFlags().String("credential_store_url", "sqlite://hoteldesk.db", "Where the console keeps its credential (memory://, sqlite://, postgres://, pgx://, redis://)")
	rootCmd.PersistentFlags().Duration("request_timeout", apiclient.DefaultTimeout, "Per-request timeout for service calls")
	rootCmd.PersistentFlags().Float64("rate_limit", 0, "Maximum service calls per second; 0 disables limiting")
	rootCmd.PersistentFlags().Bool("verbose", false, "Write development logs to stderr")

	_ = viper.BindPFlag("api_base_url", rootCmd.PersistentFlags().Lookup("api_base_url"))
	_ = viper.BindPFlag("credential_store_url", rootCmd.PersistentFlags().Lookup("credential_store_url"))
	_ = viper.BindPFlag("request_timeout", rootCmd.PersistentFlags().Lookup("request_timeout"))
	_ = viper.BindPFlag("rate_limit", rootCmd.PersistentFlags().Lookup("rate_limit"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	viper.SetEnvPrefix("HOTEL")
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		newLoginCommand(),
		newRegisterCommand(),
		newLogoutCommand(),
		newWhoAmICommand(),
		newServeCommand(),
	)
	rootCmd.AddCommand(newResourceCommands()...)
	return rootCmd
}

func newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard over HTTP with cookie-held credentials",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen_addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("cookie_domain", "", "Cookie domain; empty for host-only")
	serveCmd.Flags().Bool("dev_insecure_http", false, "Allow credential cookies over plain HTTP for local dev")
	serveCmd.Flags().Bool("enable_cors", false, "Enable CORS for cross-origin clients (sets SameSite=None cookies)")
	serveCmd.Flags().StringSlice("cors_allowed_origins", []string{}, "Allowed origins when CORS is enabled")
	serveCmd.Flags().Duration("shutdown_grace", 10*time.Second, "Time allowed for in-flight requests on shutdown")

	_ = viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen_addr"))
	_ = viper.BindPFlag("cookie_domain", serveCmd.Flags().Lookup("cookie_domain"))
	_ = viper.BindPFlag("dev_insecure_http", serveCmd.Flags().Lookup("dev_insecure_http"))
	_ = viper.BindPFlag("enable_cors", serveCmd.Flags().Lookup("enable_cors"))
	_ = viper.BindPFlag("cors_allowed_origins", serveCmd.Flags().Lookup("cors_allowed_origins"))
	_ = viper.BindPFlag("shutdown_grace", serveCmd.Flags().Lookup("shutdown_grace"))

	return serveCmd
}
