package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meleemajors/meleemajors/internal/aggregator"
	"github.com/meleemajors/meleemajors/internal/config"
	"github.com/meleemajors/meleemajors/internal/images"
	"github.com/meleemajors/meleemajors/internal/logger"
	"github.com/meleemajors/meleemajors/internal/mailing"
	"github.com/meleemajors/meleemajors/internal/notifier"
	"github.com/meleemajors/meleemajors/internal/render"
	"github.com/meleemajors/meleemajors/internal/site"
	"github.com/meleemajors/meleemajors/internal/startgg"
	"github.com/meleemajors/meleemajors/internal/storage"
)

// Subdirectories of the data directory.
const (
	HTMLTemplatesDir  = "html"
	EmailTemplatesDir = "email"
	ImageCacheDir     = "cards"
)

var (
	flagSiteDir        string
	flagFormat         string
	flagBail           bool
	flagStrict         bool
	flagSkipEmail      bool
	flagDryRunEmail    bool
	flagAnnounce       bool
	flagDryRunAnnounce bool
	flagMetricsFile    string
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scrape tournaments and write the site",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}

	cmd.Flags().StringVar(&flagSiteDir, "site-dir", "site", "Output directory for index.html, calendar.ics and card images")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Summary format: text or json")
	cmd.Flags().BoolVar(&flagBail, "bail", false, "Stop after the first tournament without writing anything")
	cmd.Flags().BoolVar(&flagStrict, "strict", false, "Abort the run when any tournament fails")
	cmd.Flags().BoolVar(&flagSkipEmail, "skip-email", false, "Do not schedule email broadcasts")
	cmd.Flags().BoolVar(&flagDryRunEmail, "dry-run-email", false, "Print broadcasts instead of sending them to Kit")
	cmd.Flags().BoolVar(&flagAnnounce, "announce", false, "Tweet tournaments not announced by a previous run")
	cmd.Flags().BoolVar(&flagDryRunAnnounce, "dry-run-announce", false, "Print announcements instead of tweeting (implies --announce)")
	cmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	return cmd
}

// runBuild is the main command logic
func runBuild(cmd *cobra.Command, args []string) error {
	log := logger.Default()
	out := cmd.OutOrStdout()

	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	announce := flagAnnounce || flagDryRunAnnounce

	// Configuration errors abort before any network call.
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if announce && !flagDryRunAnnounce {
		if err := cfg.ValidateAnnounce(); err != nil {
			return err
		}
	}

	store, err := storage.New(flagDataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	inputs, err := store.LoadTournaments()
	if err != nil {
		return err
	}
	ranked, err := store.LoadRankedPlayers()
	if err != nil {
		return err
	}
	page, err := render.LoadPage(store.Path(HTMLTemplatesDir))
	if err != nil {
		return err
	}

	if flagVerbose {
		log.Debug("loaded inputs", logger.Fields{
			"data_dir":      store.Dir(),
			"tournaments":   len(inputs),
			"ranked":        len(ranked),
			"site_dir":      flagSiteDir,
			"email_enabled": !flagSkipEmail,
		})
	}

	client, err := startgg.NewClient(startgg.Config{
		Endpoint:       cfg.Startgg.Endpoint,
		Token:          cfg.Startgg.Token,
		Timeout:        cfg.Startgg.Timeout,
		MaxAttempts:    cfg.Startgg.MaxAttempts,
		InitialBackoff: cfg.Startgg.InitialBackoff,
		MaxBackoff:     cfg.Startgg.MaxBackoff,
	}, nil, log)
	if err != nil {
		return err
	}

	imageStore, err := images.NewStore(store.Path(ImageCacheDir), cfg.ImageHeight, log)
	if err != nil {
		return err
	}

	scheduler, err := newScheduler(cfg, store, out, log)
	if err != nil {
		return err
	}

	siteDir, err := storage.ExpandHome(flagSiteDir)
	if err != nil {
		return err
	}

	gen := &site.Generator{
		Builder: &aggregator.Builder{Provider: client, Images: imageStore, Log: log},
		Page:    page,
		Images:  imageStore,
		Log:     log,
		SiteDir: siteDir,
		Bail:    flagBail,
		Strict:  flagStrict,
	}
	if scheduler != nil {
		gen.Scheduler = scheduler
	}
	if announce {
		gen.Snapshots = store
		if flagDryRunAnnounce {
			gen.Announcer = notifier.NewDryRunNotifier(out)
		} else {
			tw, err := notifier.NewTwitterNotifier(cfg.Twitter)
			if err != nil {
				return err
			}
			gen.Announcer = tw
		}
	}
	if flagMetricsFile != "" {
		gen.Metrics = site.NewMetrics()
	}

	result, runErr := gen.Run(cmd.Context(), inputs, ranked)
	if result != nil {
		summary := NewOutputResult(result, siteDir)
		if runErr != nil {
			summary.NextSteps = nil
		}
		if flagVerbose {
			summary.Metrics = logger.GetMetricsSnapshot()
		}
		if err := WriteOutput(out, summary, format, flagVerbose); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if gen.Metrics != nil {
		if err := gen.Metrics.WriteTextfile(flagMetricsFile); err != nil {
			return err
		}
	}
	return nil
}

// newScheduler returns nil when email is skipped or Kit is not configured.
func newScheduler(cfg config.Config, store *storage.Storage, out io.Writer, log *logger.Logger) (*mailing.Scheduler, error) {
	if flagSkipEmail {
		log.Skip("email", "email scheduling skipped", nil)
		return nil, nil
	}

	var svc mailing.BroadcastService
	switch {
	case flagDryRunEmail:
		svc = mailing.NewDryRunService(out)
	case cfg.Kit.Enabled():
		kit, err := mailing.NewKitClient(cfg.Kit.Endpoint, cfg.Kit.APIKey, nil)
		if err != nil {
			return nil, err
		}
		svc = kit
	default:
		log.Skip("email", "KIT_API_KEY not set, email scheduling disabled", nil)
		return nil, nil
	}

	tmpl, err := mailing.LoadTemplates(store.Path(EmailTemplatesDir))
	if err != nil {
		return nil, err
	}
	s := mailing.NewScheduler(svc, tmpl, log)
	s.ReminderLead = cfg.ReminderLead
	return s, nil
}
