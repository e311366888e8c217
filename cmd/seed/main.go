package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"booksapi/internal/book"
	"booksapi/internal/config"
	"booksapi/internal/platform/database"
	"booksapi/internal/platform/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	languages  = []string{"English", "Spanish", "French", "German", "Italian", "Portuguese", "Chinese", "Japanese"}
	publishers = []string{"Penguin", "HarperCollins", "Oxford", "Cambridge", "MIT Press", "Springer", "Wiley", "Elsevier"}
	authors    = []string{"Ada Byron", "Alan Turing", "Grace Hopper", "Edsger Dijkstra", "Barbara Liskov", "Donald Knuth"}
	words      = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
)

type options struct {
	count int
	seed  int64
	fresh bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Fill the books table with generated data",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.count < 0 {
				return fmt.Errorf("--count must not be negative")
			}
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.count, "count", 1000, "number of books to generate")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed; the same seed yields the same books")
	cmd.Flags().BoolVar(&opts.fresh, "fresh", false, "salt ISBNs so every run inserts new rows")
	return cmd
}

func run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := book.NewRepository(db, cfg.DBTimeout)
	if err != nil {
		return err
	}

	salt := ""
	if opts.fresh {
		salt = isbnSalt(uuid.New())
	}

	logger.Info("generating books", zap.Int("count", opts.count), zap.Int64("seed", opts.seed))
	inserted, skipped, err := seed(ctx, book.NewService(repo), generateBooks(opts.count, rand.New(rand.NewSource(opts.seed)), salt), logger)
	if err != nil {
		return err
	}
	logger.Info("seed finished", zap.Int("inserted", inserted), zap.Int("skipped", skipped))
	return nil
}

// seed stores books one by one. Books whose ISBN already exists are skipped.
func seed(ctx context.Context, svc *book.Service, books []book.Book, logger *zap.Logger) (inserted, skipped int, err error) {
	start := time.Now()
	for i, b := range books {
		if _, err := svc.Create(ctx, b); err != nil {
			if errors.Is(err, book.ErrConflict) {
				skipped++
				continue
			}
			return inserted, skipped, fmt.Errorf("insert %s: %w", b.ISBN, err)
		}
		inserted++
		if (i+1)%1000 == 0 {
			logger.Info("progress", zap.Int("done", i+1), zap.Int("total", len(books)))
		}
	}
	logger.Debug("seed timing", zap.Duration("elapsed", time.Since(start)))
	return inserted, skipped, nil
}

func generateBooks(n int, rng *rand.Rand, salt string) []book.Book {
	books := make([]book.Book, 0, n)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("%s of %s", randomWord(rng), randomWord(rng))
		books = append(books, book.Book{
			ISBN:      fmt.Sprintf("978%s%08d", salt, i+1),
			AmazonURL: "https://www.amazon.com/s?k=" + strings.ReplaceAll(title, " ", "+"),
			Author:    authors[rng.Intn(len(authors))],
			Language:  languages[rng.Intn(len(languages))],
			Pages:     100 + rng.Intn(800),
			Publisher: publishers[rng.Intn(len(publishers))],
			Title:     title,
			Year:      1950 + rng.Intn(75),
		})
	}
	return books
}

// isbnSalt turns the first bytes of id into four digits.
func isbnSalt(id uuid.UUID) string {
	n := (int(id[0])<<8 | int(id[1])) % 10000
	return fmt.Sprintf("%04d", n)
}

func randomWord(rng *rand.Rand) string {
	return words[rng.Intn(len(words))]
}
