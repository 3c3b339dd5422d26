package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sentinelai/sentinel-alerts/internal/config"
	"github.com/sentinelai/sentinel-alerts/internal/models"
	"github.com/sentinelai/sentinel-alerts/internal/monitoring"
	"github.com/sentinelai/sentinel-alerts/internal/notifications"
	"github.com/sentinelai/sentinel-alerts/internal/sentiment"
	"github.com/sentinelai/sentinel-alerts/internal/sources"
	"github.com/sentinelai/sentinel-alerts/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:   "probe",
		Short: "Check SentinelAI connectivity and classification without running the service",
		Long: `Probe exercises the same sources, classifier and pipeline as the service.

Examples:
  # Check every social source
  probe sources

  # Classify a sample text
  probe classify "my order never arrived and I want a refund"

  # Run one poll tick against a throwaway in-memory database
  probe tick

  # List alert events archived in blob storage over the last 3 days
  probe archive --days 3`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				logrus.Debug("No .env file found, using system environment variables")
			}
			logrus.SetLevel(logrus.WarnLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")

	rootCmd.AddCommand(newSourcesCmd(&timeout))
	rootCmd.AddCommand(newClassifyCmd(&timeout))
	rootCmd.AddCommand(newTickCmd(&timeout))
	rootCmd.AddCommand(newArchiveCmd(&timeout))

	return rootCmd
}

func newSourcesCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Fetch recent posts from every configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			fmt.Printf("🔍 Probing sources for %q\n", cfg.BrandQuery)
			fmt.Println(strings.Repeat("-", 40))

			for _, src := range monitoring.NewSources(cfg) {
				probeSource(ctx, src, cfg)
			}
			return nil
		},
	}
}

func probeSource(ctx context.Context, source sources.Source, cfg *config.Config) {
	fmt.Printf("🔸 %s... ", source.GetName())

	if !source.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing credentials)\n")
		return
	}

	posts, err := source.FetchRecent(ctx, cfg.BrandQuery, cfg.MaxResults)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d posts)\n", len(posts))
	if len(posts) > 0 {
		fmt.Printf("   📝 Sample by %s: %q\n", posts[0].Author, posts[0].Text)
	}
}

func newClassifyCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify a text with the configured model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			classifier := sentiment.NewClassifier(modelFor(cfg))
			result, err := classifier.Classify(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Printf("Model:          %s\n", classifier.ModelName())
			fmt.Printf("Sentiment:      %s\n", result.Sentiment)
			fmt.Printf("Urgency:        %s\n", result.Urgency)
			fmt.Printf("Score:          %.3f\n", result.Score)
			fmt.Printf("Recommendation: %s\n", sentiment.Recommend(result.Sentiment))
			return nil
		},
	}
}

func newTickCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one poll tick against an in-memory database and print the alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := storage.Open("sqlite", "file:probe?mode=memory&cache=shared", false)
			if err != nil {
				return err
			}
			store := storage.NewStore(db)
			defer store.Close()
			if err := store.Migrate(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			service := monitoring.NewService(cfg, store, printingNotifier{},
				sentiment.NewClassifier(modelFor(cfg)), monitoring.NewSources(cfg), nil)

			stats, err := service.RunMonitoring(ctx)
			if err != nil {
				return err
			}
			if stats.Skipped {
				fmt.Println("⚠️  No social source credentials configured")
				return nil
			}

			fmt.Printf("\n📊 %d posts, %d alerts\n", stats.Posts, stats.Alerts)
			for name, n := range stats.PerSource {
				fmt.Printf("   • %s: %d posts\n", name, n)
			}
			return nil
		},
	}
}

func newArchiveCmd(timeout *time.Duration) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List archived alert events in blob storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StorageAccount == "" {
				return fmt.Errorf("AZURE_STORAGE_ACCOUNT is not set")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			archive, err := storage.NewAzureArchive(ctx, cfg.StorageAccount, cfg.StorageContainer)
			if err != nil {
				return err
			}

			names, err := notifications.ListArchived(ctx, archive, time.Now().UTC(), days)
			if err != nil {
				return err
			}

			fmt.Printf("📦 %d archived events in %s over the last %d days\n", len(names), cfg.StorageContainer, days)
			for _, name := range names {
				fmt.Printf("   • %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 1, "number of days to list, ending today")
	return cmd
}

// printingNotifier writes alert events to stdout instead of delivering them
type printingNotifier struct{}

func (printingNotifier) NotifyAlert(_ context.Context, event models.AlertEvent) error {
	a := event.Data
	fmt.Printf("🚨 [%s] %s on %s (reach %d): %s\n", strings.ToUpper(string(a.Urgency)), a.Customer, a.Platform, a.Reach, a.Message)
	fmt.Printf("   Rec: %s\n", a.RecommendedResponse)
	return nil
}

func modelFor(cfg *config.Config) sentiment.Model {
	if cfg.SentimentAPIURL == "" {
		return sentiment.LexiconModel{}
	}
	return sentiment.NewInferenceModel(cfg.SentimentAPIURL, cfg.SentimentAPIToken)
}
