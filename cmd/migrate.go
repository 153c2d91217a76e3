package cmd

import (
	"log"

	"github.com/kairoscal/server/database"
	"github.com/spf13/cobra"
)

// migrateCmd checks database connectivity. Schema migrations themselves are
// persistence mechanics outside the engine's scope (SPEC_FULL §1); this
// command exists so operators have a single entrypoint to verify the
// configured database_url is reachable before running serve.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "verify database connectivity",
	Long:  `Opens a connection to the configured database_url and verifies it is reachable.`,
	Run: func(cmd *cobra.Command, args []string) {
		db, err := database.DBConn()
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer func() { _ = db.Close() }()
		log.Println("database connection OK")
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
