package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Guidantas28/blog-generator/internal/config"
	"github.com/Guidantas28/blog-generator/internal/database"
	"github.com/Guidantas28/blog-generator/internal/logging"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	userID     string
	cfg        *config.Config
	logger     = slog.Default()
	closeLog   = func() error { return nil }
)

func main() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "bloggen",
	Short:   "Automated WordPress blog posts",
	Long:    "bloggen researches trending topics, writes SEO posts with an LLM and saves them as WordPress drafts on a schedule, or publishes one on demand.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "DEBUG"
		}
		logger, closeLog = logging.Setup(level, cfg.Logging.File)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "local", "Owner of sites, automations and settings")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sitesCmd)
	rootCmd.AddCommand(automationsCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(historyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bloggen", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/bloggen/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Set the API key variables it names, then add a site with 'bloggen sites add'.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Setup:")
		fmt.Printf("  Sites: %d\n", stats.Sites)
		fmt.Printf("  Automations: %d\n", stats.Automations)
		fmt.Println("\nExecutions:")
		fmt.Printf("  Completed: %s\n", styles.success.Render(fmt.Sprint(stats.ExecutionsCompleted)))
		fmt.Printf("  Failed: %s\n", styles.failure.Render(fmt.Sprint(stats.ExecutionsFailed)))
		fmt.Printf("  Running: %s\n", styles.running.Render(fmt.Sprint(stats.ExecutionsRunning)))
		fmt.Println("\nPosts:")
		fmt.Printf("  Published: %d\n", stats.PublishedPosts)
		fmt.Printf("  Automated drafts: %d\n", stats.AutomatedPosts)
		fmt.Println("\nEnvironment:")
		printEnv("LLM key", cfg.LLM.APIKeyEnv)
		printEnv("Anthropic key", cfg.LLM.AnthropicKeyEnv)
		printEnv("Unsplash key", cfg.Images.UnsplashKeyEnv)
		printEnv("Pexels key", cfg.Images.PexelsKeyEnv)
		printEnv("Trigger secret", cfg.Server.CronSecretEnv)
		printEnv("Password key", cfg.Security.SecretKeyEnv)
		return nil
	},
}

func printEnv(label, name string) {
	if name == "" {
		fmt.Printf("  %s: %s\n", label, styles.hint.Render("not configured"))
		return
	}
	state := styles.failure.Render("unset")
	if os.Getenv(name) != "" {
		state = styles.success.Render("set")
	}
	fmt.Printf("  %s ($%s): %s\n", label, name, state)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "bloggen.db")
	return database.Open(dbPath)
}
