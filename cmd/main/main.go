package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"consent/sync/internal/config"
	"consent/sync/internal/container"
	"consent/sync/internal/domain"
	"consent/sync/internal/matcher"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	logLevel   string
	noCookies  bool
	noTags     bool
	names      string
	outputDir  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Errorf("❌ %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "consent-sync",
		Short: "Export Ketch consent categories and sync them to ObservePoint",
		Long: "Extracts consent categories, cookies and vendors from a site's Ketch configuration.\n" +
			"Without an API key the rows are exported as CSV; with one they are imported or updated\n" +
			"in ObservePoint according to sync.mode.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.ObservePoint.APIKey == "" {
				log.Info("No API key configured, exporting only")
				return runExport(cmd.Context(), cfg)
			}
			return runSync(cmd.Context(), cfg)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the extracted cookie and tag rows to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), cfg)
		},
	}
	exportCmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "output directory")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Create a new consent category for every local category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, opts, domain.ModeImport)
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Replace cookies and tags of existing consent categories",
		Long: "Matches each local category to the existing category whose name contains the\n" +
			"selected name at the same position, then replaces its cookies and tags.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, opts, domain.ModeUpdate)
		},
	}
	updateCmd.Flags().StringVar(&opts.names, "names", "", "comma-separated existing category names, one per local category")

	for _, cmd := range []*cobra.Command{importCmd, updateCmd} {
		cmd.Flags().BoolVar(&opts.noCookies, "no-cookies", false, "do not sync cookies")
		cmd.Flags().BoolVar(&opts.noTags, "no-tags", false, "do not sync tags")
	}

	root.AddCommand(exportCmd, importCmd, updateCmd)
	return root
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(parsed)

	if opts.outputDir != "" {
		cfg.Export.OutputDir = opts.outputDir
	}
	if opts.noCookies {
		cfg.Sync.IncludeCookies = false
	}
	if opts.noTags {
		cfg.Sync.IncludeTags = false
	}
	if opts.names != "" {
		cfg.Sync.SelectedNames = matcher.ParseSelectedNames(opts.names)
	}

	log.Debug("Configuration loaded successfully")
	return cfg, nil
}

func runMode(cmd *cobra.Command, opts *options, mode domain.Mode) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg.Sync.Mode = mode.String()
	return runSync(cmd.Context(), cfg)
}

func runExport(ctx context.Context, cfg *config.Config) error {
	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer app.Close()

	_, err = app.Export(ctx)
	return err
}

func runSync(ctx context.Context, cfg *config.Config) error {
	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer app.Close()

	report, err := app.Sync(ctx)
	if report != nil {
		logReport(report)
	}
	if err != nil {
		return err
	}

	if report.HasFailures() {
		return fmt.Errorf("%d of %d categories failed", len(report.Failed()), len(report.Results))
	}

	log.Infof("✅ %s complete", report.Mode)
	return nil
}

func logReport(report *domain.Report) {
	for _, res := range report.Results {
		entry := log.WithFields(log.Fields{
			"category":  res.Category,
			"remote_id": res.RemoteID,
			"status":    res.Status,
			"cookies":   res.Cookies,
			"tags":      res.Tags,
		})
		if res.Succeeded() {
			entry.Info("✅ category synced")
		} else if res.Err != nil {
			entry.WithError(res.Err).Error("❌ category failed")
		} else {
			entry.Warn("⚠️ category not attempted")
		}
	}
}
