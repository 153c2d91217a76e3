// Package cmd implements the kairos command line entrypoint.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd is the base command for the kairos calendar and scheduling server.
var RootCmd = &cobra.Command{
	Use:   "kairos",
	Short: "Kairos multi-tenant calendar and scheduling server",
	Long: `Kairos is a multi-tenant calendar and scheduling server.

It stores calendar events with recurrence rules and exception dates, expands
recurring events into concrete instances, computes free/busy timelines across
calendars, and generates bookable slots for multi-resource services.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env in the working directory)")
	RootCmd.PersistentFlags().Bool("db_debug", false, "log every SQL statement executed against the database")
	_ = viper.BindPFlag("db_debug", RootCmd.PersistentFlags().Lookup("db_debug"))
}

// initConfig loads configuration from a dotenv file (if present) and binds
// environment variables, following the teacher's convention of layering
// godotenv under viper rather than viper's own config-file readers.
func initConfig() {
	if cfgFile != "" {
		if err := godotenv.Load(cfgFile); err == nil {
			viper.SetConfigFile(cfgFile)
		}
	} else if err := godotenv.Load(); err == nil {
		viper.SetConfigFile(".env")
	}

	viper.SetEnvPrefix("kairos")
	viper.AutomaticEnv()
}
