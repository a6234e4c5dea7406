package estategraph

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	estategraph "github.com/estategraph/estategraph"
	"github.com/estategraph/estategraph/pkg/config"
	"github.com/estategraph/estategraph/pkg/driver"
	"github.com/estategraph/estategraph/pkg/logger"
	"github.com/estategraph/estategraph/pkg/pipeline"
	"github.com/estategraph/estategraph/pkg/source"
	"github.com/estategraph/estategraph/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the property graph from source tables",
	Long: `Build reads the property, neighborhood and article Parquet tables,
materializes graph nodes, writes them to the configured graph store with
merge semantics, then infers and writes relationships. Re-running over
the same sources produces the same graph.

With --dry-run the build executes against an in-memory store and only
the report is produced, which is useful for validating source tables
before touching a live database.`,
	RunE: runBuild,
}

var (
	propertiesPath    string
	neighborhoodsPath string
	articlesPath      string
	dryRun            bool
	reportFormat      string
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&propertiesPath, "properties", "", "Path to the property listings Parquet file (required)")
	buildCmd.Flags().StringVar(&neighborhoodsPath, "neighborhoods", "", "Path to the neighborhoods Parquet file (required)")
	buildCmd.Flags().StringVar(&articlesPath, "articles", "", "Path to the articles Parquet file (required)")
	buildCmd.MarkFlagRequired("properties")
	buildCmd.MarkFlagRequired("neighborhoods")
	buildCmd.MarkFlagRequired("articles")

	buildCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run against an in-memory store, write nothing to the database")
	buildCmd.Flags().StringVarP(&reportFormat, "output", "o", "yaml", "Report output format (yaml, json)")

	// Database flags
	buildCmd.Flags().String("db-driver", "neo4j", "Database driver (neo4j, memory)")
	buildCmd.Flags().String("db-uri", "", "Database URI")
	buildCmd.Flags().String("db-username", "", "Database username")
	buildCmd.Flags().String("db-password", "", "Database password")
	buildCmd.Flags().String("db-database", "", "Database name")

	// Pipeline flags
	buildCmd.Flags().Float64("similarity-threshold", 0, "Minimum cosine similarity for SIMILAR_TO relationships")
	buildCmd.Flags().Int("similarity-top-k", 0, "Maximum SIMILAR_TO neighbors per property")
	buildCmd.Flags().Int("batch-size", 0, "Nodes or relationships per write batch")

	// Telemetry flags
	buildCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for run telemetry")
}

func runBuild(cmd *cobra.Command, args []string) error {
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

	sources, err := loadSources()
	if err != nil {
		return err
	}

	client, err := estategraph.NewClient(writer, &estategraph.Config{
		BatchSize:           cfg.Pipeline.BatchSize,
		WriteRetries:        cfg.Pipeline.WriteRetries,
		WriteTimeout:        time.Duration(cfg.Pipeline.WriteTimeout) * time.Second,
		MaxConcurrency:      cfg.Pipeline.MaxConcurrency,
		SimilarityThreshold: &cfg.Similarity.Threshold,
		SimilarityTopK:      cfg.Similarity.TopK,
		PriceBuckets:        cfg.Buckets(),
		TelemetryDir:        telemetryDir(cfg),
	}, log)
	if err != nil {
		return err
	}
	defer client.Close(cmd.Context())

	report, err := client.BuildGraph(cmd.Context(), sources)
	if report != nil {
		if perr := printReport(report); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if !report.Success {
		return fmt.Errorf("build %s finished with failures", report.RunID)
	}
	return nil
}

// openWriter picks the graph store. Dry runs and the "memory" driver
// share the in-memory writer; a live Neo4j store gets the circuit
// breaker when it is enabled.
func openWriter(cfg *config.Config, log *slog.Logger) (driver.GraphWriter, error) {
	if dryRun || cfg.Database.Driver == "memory" {
		return driver.NewMemoryWriter(), nil
	}

	neo, err := driver.NewNeo4jWriter(cfg.Database.URI, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph store: %w", err)
	}
	if !cfg.CircuitBreaker.Enabled {
		return neo, nil
	}
	return driver.NewBreakerWriter(neo, driver.BreakerSettings{
		MaxRequests:      cfg.CircuitBreaker.MaxRequests,
		Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
		Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
		ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
	}, log), nil
}

func loadSources() (pipeline.Sources, error) {
	properties, err := source.ReadPropertiesParquet(propertiesPath)
	if err != nil {
		return pipeline.Sources{}, fmt.Errorf("failed to read properties: %w", err)
	}
	neighborhoods, err := source.ReadNeighborhoodsParquet(neighborhoodsPath)
	if err != nil {
		return pipeline.Sources{}, fmt.Errorf("failed to read neighborhoods: %w", err)
	}
	articles, err := source.ReadArticlesParquet(articlesPath)
	if err != nil {
		return pipeline.Sources{}, fmt.Errorf("failed to read articles: %w", err)
	}
	return pipeline.Sources{Properties: properties, Neighborhoods: neighborhoods, Articles: articles}, nil
}

func telemetryDir(cfg *config.Config) string {
	if dryRun {
		return ""
	}
	return cfg.Telemetry.ParquetPath
}

func printReport(report *types.RunReport) error {
	var out []byte
	var err error
	switch reportFormat {
	case "json":
		out, err = json.MarshalIndent(report, "", "  ")
	default:
		out, err = yaml.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Database flags
	if cmd.Flags().Changed("db-driver") {
		cfg.Database.Driver, _ = cmd.Flags().GetString("db-driver")
	}
	if cmd.Flags().Changed("db-uri") {
		cfg.Database.URI, _ = cmd.Flags().GetString("db-uri")
	}
	if cmd.Flags().Changed("db-username") {
		cfg.Database.Username, _ = cmd.Flags().GetString("db-username")
	}
	if cmd.Flags().Changed("db-password") {
		cfg.Database.Password, _ = cmd.Flags().GetString("db-password")
	}
	if cmd.Flags().Changed("db-database") {
		cfg.Database.Database, _ = cmd.Flags().GetString("db-database")
	}

	// Pipeline flags
	if cmd.Flags().Changed("similarity-threshold") {
		cfg.Similarity.Threshold, _ = cmd.Flags().GetFloat64("similarity-threshold")
	}
	if cmd.Flags().Changed("similarity-top-k") {
		cfg.Similarity.TopK, _ = cmd.Flags().GetInt("similarity-top-k")
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.Pipeline.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}
