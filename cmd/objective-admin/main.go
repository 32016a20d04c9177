package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/blob"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/config"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/services"
	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/storage"
)

const dateLayout = "2006-01-02"

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: objective-admin <command> [flags]

Commands:
  create    create a savings objective (optionally with an image)
  list      list an account's objectives
  progress  overwrite an objective's current amount
  delete    delete an objective`)
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	// Objective images go to GCS when a bucket is configured; without one the
	// service creates objectives without images.
	var images services.ImageStore
	if cfg.GCSBucket != "" {
		store, err := blob.NewStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize GCS blob store", "error", err, "bucket", cfg.GCSBucket)
			os.Exit(1)
		}
		defer store.Close()
		images = store
	}

	objectives := services.NewObjectiveService(repo, images)

	switch os.Args[1] {
	case "create":
		err = runCreate(ctx, objectives, os.Args[2:])
	case "list":
		err = runList(ctx, objectives, os.Args[2:])
	case "progress":
		err = runProgress(ctx, objectives, os.Args[2:])
	case "delete":
		err = runDelete(ctx, objectives, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runCreate(ctx context.Context, objectives *services.ObjectiveService, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	accountID := fs.String("account", "", "account ID (required)")
	description := fs.String("description", "", "objective description")
	percent := fs.String("percent", "0", "savings percent")
	target := fs.String("target", "", "target amount (required)")
	current := fs.String("current", "0", "starting current amount")
	start := fs.String("start", time.Now().Format(dateLayout), "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD, optional)")
	imagePath := fs.String("image", "", "image file to upload (optional)")
	fs.Parse(args)

	in := services.ObjectiveInput{
		AccountID:   *accountID,
		Description: *description,
	}

	var err error
	if in.SavingsPercent, err = decimal.NewFromString(*percent); err != nil {
		return fmt.Errorf("parse -percent: %w", err)
	}
	if in.TargetAmount, err = decimal.NewFromString(*target); err != nil {
		return fmt.Errorf("parse -target: %w", err)
	}
	if in.CurrentAmount, err = decimal.NewFromString(*current); err != nil {
		return fmt.Errorf("parse -current: %w", err)
	}
	if in.StartDate, err = time.Parse(dateLayout, *start); err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	if *end != "" {
		endDate, err := time.Parse(dateLayout, *end)
		if err != nil {
			return fmt.Errorf("parse -end: %w", err)
		}
		in.EndDate = &endDate
	}
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			return fmt.Errorf("read image file: %w", err)
		}
		in.ImageName = *imagePath
		in.ImageData = data
	}

	objective, err := objectives.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("created objective %s (target %s)\n", objective.ID, objective.TargetAmount)
	if objective.ImageURL != "" {
		fmt.Printf("image: %s\n", objective.ImageURL)
	}
	return nil
}

func runList(ctx context.Context, objectives *services.ObjectiveService, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	accountID := fs.String("account", "", "account ID (required)")
	fs.Parse(args)

	list, err := objectives.ListByAccount(ctx, *accountID)
	if err != nil {
		return err
	}
	for _, o := range list {
		end := "open-ended"
		if o.EndDate != nil {
			end = o.EndDate.Format(dateLayout)
		}
		fmt.Printf("%s  %s/%s  %s  %q\n", o.ID, o.CurrentAmount, o.TargetAmount, end, o.Description)
	}
	return nil
}

func runProgress(ctx context.Context, objectives *services.ObjectiveService, args []string) error {
	fs := flag.NewFlagSet("progress", flag.ExitOnError)
	objectiveID := fs.String("id", "", "objective ID (required)")
	current := fs.String("current", "", "new current amount (required, replaces the old value)")
	fs.Parse(args)

	amount, err := decimal.NewFromString(*current)
	if err != nil {
		return fmt.Errorf("parse -current: %w", err)
	}
	objective, err := objectives.UpdateProgress(ctx, *objectiveID, amount)
	if err != nil {
		return err
	}
	fmt.Printf("objective %s now at %s/%s\n", objective.ID, objective.CurrentAmount, objective.TargetAmount)
	return nil
}

func runDelete(ctx context.Context, objectives *services.ObjectiveService, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	objectiveID := fs.String("id", "", "objective ID (required)")
	fs.Parse(args)

	if err := objectives.Delete(ctx, *objectiveID); err != nil {
		return err
	}
	fmt.Printf("deleted objective %s\n", *objectiveID)
	return nil
}
