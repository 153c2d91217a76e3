package cmd

import (
	"log"

	"github.com/kairoscal/server/api"
	"github.com/kairoscal/server/applog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start http server with configured api",
	Long:  `Starts a http server and serves the configured api`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := applog.New(applog.Config{
			Level:  viper.GetString("log_level"),
			Format: viper.GetString("log_format"),
			Env:    viper.GetString("app_env"),
		})

		server, err := api.NewServer(logger)
		if err != nil {
			log.Fatal(err)
		}
		server.Start()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)

	viper.SetDefault("http_host", "")
	viper.SetDefault("http_port", "8080")
	viper.SetDefault("enable_cors", true)
	viper.SetDefault("log_level", "debug")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("app_env", "development")

	viper.SetDefault("auth_jwt_secret", "development-secret-change-me")
	viper.SetDefault("auth_jwt_expiry", "15m")
	viper.SetDefault("auth_jwt_refresh_expiry", "168h")

	viper.SetDefault("max_events_returned_by_search", 500)
	viper.SetDefault("event_instances_query_duration_limit_days", 366)
	viper.SetDefault("booking_slots_query_duration_limit_days", 92)
	viper.SetDefault("disable_reminders", false)
}
