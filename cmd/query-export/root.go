package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/contentstack/cli-query-export/exporter"
	"github.com/contentstack/cli-query-export/fetch"
	"github.com/contentstack/cli-query-export/query"
	"github.com/contentstack/cli-query-export/store"
	"github.com/contentstack/cli-query-export/types"
)

const defaultAPIBase = "https://api.contentstack.io/v3"

var rootCmd = &cobra.Command{
	Use:   "query-export",
	Short: "Export a query-selected subset of a stack with its dependencies",
	Long: `query-export exports the records matching a structured query, then
resolves and exports everything those records depend on: referenced
content types, global fields, extensions, marketplace apps, taxonomies,
entries, and referenced assets.

The query is a JSON object (inline or a .json/.yaml file path):

  query-export -k <api-key> -a <token> \
    --query '{"modules":{"content-types":{"uid":{"$in":["blog"]}}}}' \
    --data-dir ./export`,
	SilenceUsage: true,
	RunE:         runExport,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringP("stack-api-key", "k", "", "stack API key (required)")
	flags.StringP("management-token", "a", "", "management token or token alias (required)")
	flags.StringP("query", "q", "", "query JSON string or path to a .json/.yaml query file (required)")
	flags.StringP("data-dir", "d", "", "export destination directory (required)")
	flags.String("branch", types.DefaultBranch, "branch to export from")
	flags.String("api-base", defaultAPIBase, "content-management API base URL")
	flags.Bool("skip-references", false, "do not pull in referenced content types")
	flags.Bool("skip-dependencies", false, "do not export global fields, extensions, marketplace apps, or taxonomies")
	flags.Bool("secured-assets", false, "request secured asset URLs")
	flags.String("config", "", "external config file (JSON or YAML)")
	flags.String("log-level", "info", "log level: debug|info|warn|error")
	flags.Bool("quiet", false, "suppress console output, log to file only")
	flags.Int("max-iterations", types.DefaultMaxIterations, "reference resolution depth limit")
	flags.Int("asset-batch-size", types.DefaultAssetBatchSize, "assets fetched per batch")
	flags.Duration("asset-batch-delay", types.DefaultAssetBatchDelay, "settling delay between batches")
}

// resolveConfig merges flags, environment (CS_EXPORT_*), and an optional
// external config file into one immutable Config.
func resolveConfig(cmd *cobra.Command) (types.Config, *viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return types.Config{}, nil, err
	}
	v.SetEnvPrefix("CS_EXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return types.Config{}, nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := types.Config{
		StackAPIKey:      v.GetString("stack-api-key"),
		Branch:           v.GetString("branch"),
		ExportDir:        v.GetString("data-dir"),
		SkipReferences:   v.GetBool("skip-references"),
		SkipDependencies: v.GetBool("skip-dependencies"),
		SecuredAssets:    v.GetBool("secured-assets"),
		MaxIterations:    v.GetInt("max-iterations"),
		AssetBatchSize:   v.GetInt("asset-batch-size"),
		AssetBatchDelay:  v.GetDuration("asset-batch-delay"),
	}.WithDefaults()

	if cfg.StackAPIKey == "" {
		return types.Config{}, nil, fmt.Errorf("stack API key is required (--stack-api-key or CS_EXPORT_STACK_API_KEY)")
	}
	if v.GetString("management-token") == "" {
		return types.Config{}, nil, fmt.Errorf("management token is required (--management-token or CS_EXPORT_MANAGEMENT_TOKEN)")
	}
	if cfg.ExportDir == "" {
		return types.Config{}, nil, fmt.Errorf("export directory is required (--data-dir or CS_EXPORT_DATA_DIR)")
	}
	if v.GetString("query") == "" {
		return types.Config{}, nil, fmt.Errorf("query is required (--query or CS_EXPORT_QUERY)")
	}
	return cfg, v, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, v, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// Parse and validate before touching the destination or the API.
	q, err := query.Parse(v.GetString("query"))
	if err != nil {
		return err
	}
	if err := query.ValidateStrict(q, query.Limits{
		MaxDepth:       cfg.MaxQueryDepth,
		MaxArrayLength: cfg.MaxArrayOperands,
	}); err != nil {
		return err
	}

	log, err := initLogging(cfg.ExportDir, v.GetString("log-level"), v.GetBool("quiet"))
	if err != nil {
		return err
	}

	httpClient, err := fetch.NewHTTPClient(
		v.GetString("api-base"),
		cfg.StackAPIKey,
		v.GetString("management-token"),
		cfg.Branch,
		&http.Client{Timeout: 60 * time.Second},
	)
	if err != nil {
		return err
	}
	client, err := fetch.NewCachedClient(httpClient, cfg.FetchCacheSize)
	if err != nil {
		return err
	}

	st := store.New(cfg, log)
	return exporter.New(cfg, client, st, log).Run(cmd.Context(), q)
}
