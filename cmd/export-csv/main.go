package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"reviewme/internal/reviews"
	"reviewme/internal/storage"
	"reviewme/pkg/logger"
	"reviewme/pkg/utils"
)

const exportPageSize = 200

func main() {
	var (
		out    = flag.String("out", "data/reviews.csv", "output CSV path")
		userID = flag.String("user", "", "only export reviews owned by this user id")
	)
	flag.Parse()

	cfg, err := utils.Load()
	if err != nil {
		logger.Init("info", "console")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer stores.Close(context.Background())

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatal().Err(err).Msg("create output dir")
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("create output file")
	}
	defer f.Close()

	n, err := exportReviews(ctx, stores.Reviews, *userID, f)
	if err != nil {
		log.Fatal().Err(err).Msg("export reviews")
	}
	log.Info().Int("reviews", n).Str("path", *out).Msg("export finished")
}

// exportReviews writes every matching review, oldest first, and returns how
// many rows it wrote.
func exportReviews(ctx context.Context, store reviews.Store, userID string, out io.Writer) (int, error) {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "user_id", "title", "author", "rating", "review_text", "created_at", "updated_at"}); err != nil {
		return 0, err
	}

	written := 0
	for {
		page, err := store.List(ctx, reviews.ListQuery{
			UserID:     userID,
			StartIndex: written,
			PageSize:   exportPageSize,
			SortField:  "createdAt",
			SortAsc:    true,
		})
		if err != nil {
			return written, err
		}

		for _, rv := range page {
			if err := w.Write([]string{
				rv.ID,
				rv.UserID,
				rv.Title,
				rv.Author,
				strconv.Itoa(rv.Rating),
				rv.ReviewText,
				rv.CreatedAt.UTC().Format(time.RFC3339),
				rv.UpdatedAt.UTC().Format(time.RFC3339),
			}); err != nil {
				return written, err
			}
		}
		written += len(page)

		if len(page) < exportPageSize {
			break
		}
	}

	w.Flush()
	return written, w.Error()
}
