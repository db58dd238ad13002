package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reviewme/internal/reviews"
	"reviewme/internal/storage"
	"reviewme/pkg/logger"
	"reviewme/pkg/models"
	"reviewme/pkg/utils"
)

type importStats struct {
	Created int
	Updated int
	Skipped int
}

func main() {
	in := flag.String("in", "data/reviews.csv", "input CSV path, in the export-csv layout")
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

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal().Err(err).Msg("open input")
	}
	defer f.Close()

	stats, err := importReviews(ctx, stores.Reviews, f)
	if err != nil {
		log.Fatal().Err(err).Msg("import reviews")
	}
	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Str("path", *in).
		Msg("import finished")
}

// importReviews upserts every row by id. Rows without an owner or with
// fields a review cannot hold are skipped and logged.
func importReviews(ctx context.Context, store reviews.Store, in io.Reader) (importStats, error) {
	var stats importStats

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}

	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}
		line++
		if len(row) == 0 {
			continue
		}

		rv, err := parseRow(header, row)
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("skipping row")
			stats.Skipped++
			continue
		}

		existing, err := store.GetByID(ctx, rv.ID)
		if err != nil {
			return stats, err
		}
		if existing == nil {
			if err := store.Create(ctx, rv); err != nil {
				return stats, fmt.Errorf("line %d: %w", line, err)
			}
			stats.Created++
			continue
		}
		if existing.UserID != rv.UserID {
			log.Warn().Int("line", line).Str("id", rv.ID).Msg("skipping row owned by another user")
			stats.Skipped++
			continue
		}

		f := reviews.Fields{Title: rv.Title, Author: rv.Author, Rating: rv.Rating, ReviewText: rv.ReviewText}
		if _, err := store.Update(ctx, rv.ID, f, rv.UpdatedAt); err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		stats.Updated++
	}

	return stats, nil
}

func parseRow(header map[string]int, row []string) (*models.Review, error) {
	rv := &models.Review{
		ID:         valueAt(header, row, "id"),
		UserID:     valueAt(header, row, "user_id"),
		Title:      valueAt(header, row, "title"),
		Author:     valueAt(header, row, "author"),
		ReviewText: valueAt(header, row, "review_text"),
	}
	if rv.UserID == "" || rv.Title == "" || rv.Author == "" || rv.ReviewText == "" {
		return nil, errors.New("missing required column value")
	}
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}

	rating, err := strconv.Atoi(valueAt(header, row, "rating"))
	if err != nil {
		return nil, fmt.Errorf("parse rating: %w", err)
	}
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, fmt.Errorf("rating %d out of range", rating)
	}
	rv.Rating = rating

	now := time.Now().UTC()
	if rv.CreatedAt, err = parseTime(valueAt(header, row, "created_at"), now); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rv.UpdatedAt, err = parseTime(valueAt(header, row, "updated_at"), rv.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return rv, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseTime(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
