package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/concierge/internal/cache"
	"github.com/lepinkainen/concierge/internal/cmdutil"
	"github.com/lepinkainen/concierge/internal/config"
	"github.com/lepinkainen/concierge/internal/tui"
)

var (
	openRepository         = cmdutil.OpenRepository
	browseTable            = tui.Browse
	stdout       io.Writer = os.Stdout
)

// CLI represents the complete command structure for the concierge application
type CLI struct {
	// Global flags
	Config  string `help:"Path to config file (defaults to ./config.yaml)" type:"path"`
	APIURL  string `name:"api-url" help:"Base URL of the sheets proxy"`
	APIKey  string `name:"api-key" help:"API key sent to the sheets proxy"`
	LocalDB string `name:"local-db" help:"Read and write a local SQLite sheet store instead of the proxy"`
	Debug   bool   `help:"Enable debug logging"`

	Serve  ServeCmd  `cmd:"" help:"Run the sheets proxy server"`
	List   ListCmd   `cmd:"" help:"List the rows of a sheet, or of every sheet"`
	Get    GetCmd    `cmd:"" help:"Show one row of a sheet"`
	Add    AddCmd    `cmd:"" help:"Append a row to a sheet"`
	Update UpdateCmd `cmd:"" help:"Replace a row of a sheet"`
	Delete DeleteCmd `cmd:"" help:"Delete a row of a sheet"`
	Import ImportCmd `cmd:"" help:"Append every row of a CSV file to a sheet"`
	Export ExportCmd `cmd:"" help:"Write a sheet as CSV"`
	Stats  StatsCmd  `cmd:"" help:"Show dashboard analytics computed from every sheet"`
	Browse BrowseCmd `cmd:"" help:"Browse a sheet interactively"`
	Cache  CacheCmd  `cmd:"" help:"Manage the proxy's sheet cache"`
}

// CacheCmd groups the cache subcommands
type CacheCmd struct {
	Clear cache.ClearCacheCmd `cmd:"" help:"Remove every cached sheet snapshot"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(slog.LevelInfo)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("concierge"),
		kong.Description("Hotel dashboard backed by a spreadsheet."),
		kong.UsageOnError(),
	)

	if cli.Debug {
		initLogging(slog.LevelDebug)
	}
	initConfig(cli.Config)
	updateGlobalConfig(&cli)

	if err := ctx.Run(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig(configFile string) {
	viper.SetDefault("api.url", "http://localhost:8787")
	viper.SetDefault("api.key", "")
	viper.SetDefault("local.dbfile", "")
	viper.SetDefault("appsscript.url", "")
	viper.SetDefault("stats.rooms", 14)

	// Cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "24h")

	viper.AutomaticEnv()
	bindings := map[string]string{
		"api.url":        "CONCIERGE_API_URL",
		"api.key":        "CONCIERGE_API_KEY",
		"local.dbfile":   "CONCIERGE_LOCAL_DB",
		"appsscript.url": "APPS_SCRIPT_URL",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			slog.Error("Failed to bind environment variable", "key", key, "error", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	config.SetAPIURL(cli.APIURL)
	config.SetAPIKey(cli.APIKey)
	config.SetLocalDB(cli.LocalDB)
}

func initLogging(level slog.Level) {
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
