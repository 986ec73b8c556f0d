// Package main provides the one-shot pipeline runner.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/arb-scout/internal/config"
	"github.com/yourusername/arb-scout/internal/database"
	"github.com/yourusername/arb-scout/internal/logger"
	"github.com/yourusername/arb-scout/internal/oddsapi"
	"github.com/yourusername/arb-scout/internal/repository"
	"github.com/yourusername/arb-scout/internal/service"
)

var (
	configFile string
	sportKey   string
	mode       string

	appLog *logrus.Logger
	cfg    *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&sportKey, "sport", "s", "basketball_nba", "Sport key or alias (example: nba)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", service.ModeAll, "Which pipeline to run: all, moneyline or props")
}

var rootCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the sports arbitrage pipeline once",
	Long:  `Fetches odds for one sport, detects two-way arbitrage across bookmakers for the selected markets and upserts qualifying opportunities.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	// Best effort; credentials usually arrive via real env vars
	godotenv.Load()

	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = logger.NewLogger(cfg.App.LogLevel)
	return nil
}

func runPipeline() error {
	ctx := context.Background()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	store := repository.NewOpportunityStore(repos.Opportunity, cfg.Storage.MinProfitPercent, appLog)
	client := oddsapi.NewClient(&cfg.OddsAPI, &cfg.Sports, appLog)
	pipeline := service.NewPipeline(
		client,
		service.NewNormalizer(appLog),
		service.NewDetector(appLog),
		store,
		&cfg.Sports,
		appLog,
	)

	summary, err := pipeline.Run(ctx, sportKey, mode)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Arbitrage Run Report ===")
	fmt.Printf("Run ID: %s\n", summary.RunID)
	fmt.Printf("Sport: %s\n", summary.SportKey)
	fmt.Printf("Mode: %s\n", summary.Mode)
	fmt.Printf("Games Processed: %d\n", summary.GamesProcessed)
	fmt.Printf("Moneyline Opportunities: %d\n", summary.MoneylineOpportunities)
	fmt.Printf("Prop Opportunities: %d\n", summary.PropOpportunities)
	fmt.Printf("Prop Request Errors: %d\n", summary.PropRequestErrors)
	fmt.Printf("Upserted Moneyline: %d\n", summary.StoredMoneyline)
	fmt.Printf("Upserted Props: %d\n", summary.StoredProps)
	fmt.Printf("Duration: %v\n", summary.Duration)

	return nil
}
