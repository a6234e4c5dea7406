package estategraph

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/estategraph/estategraph/pkg/config"
	"github.com/estategraph/estategraph/pkg/logger"
)

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "Create the uniqueness constraints the merge semantics depend on",
	RunE:  runIndices,
}

func init() {
	rootCmd.AddCommand(indicesCmd)

	indicesCmd.Flags().String("db-driver", "neo4j", "Database driver (neo4j, memory)")
	indicesCmd.Flags().String("db-uri", "", "Database URI")
	indicesCmd.Flags().String("db-username", "", "Database username")
	indicesCmd.Flags().String("db-password", "", "Database password")
	indicesCmd.Flags().String("db-database", "", "Database name")
}

func runIndices(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)

	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level))
	writer, err := openWriter(cfg, log)
	if err != nil {
		return err
	}
	defer writer.Close(cmd.Context())

	if err := writer.CreateIndices(cmd.Context()); err != nil {
		return fmt.Errorf("failed to create indices: %w", err)
	}
	log.Info("Indices created")
	return nil
}
