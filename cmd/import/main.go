package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"maktaba/internal/config"
	"maktaba/internal/database"
	"maktaba/internal/database/migration"
	"maktaba/internal/repository/postgres"
	"maktaba/internal/service"
)

// CSV columns: title, author, isbn, category, price, total_copies.
// A header row is detected by a non-numeric total_copies and skipped.
func main() {
	var (
		filePath string
		dryRun   bool
	)

	root := &cobra.Command{
		Use:   "maktaba-import",
		Short: "Bulk-import books into the catalog from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), filePath, dryRun)
		},
	}
	root.Flags().StringVarP(&filePath, "file", "f", "", "path to the CSV file (required)")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate without writing")
	root.MarkFlagRequired("file")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runImport(ctx context.Context, filePath string, dryRun bool) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	var svc service.CatalogService
	if !dryRun {
		cfg := config.Load()
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		svc = service.NewCatalogService(postgres.NewStore(db))
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	successCount := 0
	errorCount := 0
	line := 0

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", line, err)
			errorCount++
			continue
		}

		in, err := parseRow(record)
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			fmt.Fprintf(os.Stderr, "line %d: %v\n", line, err)
			errorCount++
			continue
		}

		fmt.Printf("Importing: %s by %s... ", in.Title, in.Author)
		if dryRun {
			fmt.Println("OK (dry run)")
			successCount++
			continue
		}

		book, err := svc.AddBook(ctx, in)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (ID: %s)\n", book.ID)
		successCount++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("%d rows failed", errorCount)
	}
	return nil
}

func parseRow(record []string) (service.BookInput, error) {
	copies, err := strconv.Atoi(record[5])
	if err != nil {
		return service.BookInput{}, fmt.Errorf("invalid total_copies %q", record[5])
	}

	price := decimal.Zero
	if record[4] != "" {
		price, err = decimal.NewFromString(record[4])
		if err != nil {
			return service.BookInput{}, fmt.Errorf("invalid price %q", record[4])
		}
	}

	return service.BookInput{
		Title:       record[0],
		Author:      record[1],
		ISBN:        record[2],
		Category:    record[3],
		Price:       price,
		TotalCopies: copies,
	}, nil
}
