package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reviewme/pkg/models"
)

// Repo is the SQLite Store.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(s scanner) (*models.Review, error) {
	var r models.Review
	if err := s.Scan(&r.ID, &r.Title, &r.Author, &r.Rating, &r.ReviewText, &r.UserID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Repo) Create(ctx context.Context, rv *models.Review) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rv.ID, rv.Title, rv.Author, rv.Rating, rv.ReviewText, rv.UserID, rv.CreatedAt, rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE id = ?
	`, id)

	rv, err := scanReview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return rv, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Review, error) {
	q.Normalize()
	sqlStr, args := buildListSQL(q)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]models.Review, 0, q.PageSize)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) CountByUser(ctx context.Context, userID string) (int64, error) {
	sqlStr, args := buildCountSQL(userID)
	var total int64
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return total, nil
}

func (r *Repo) Update(ctx context.Context, id string, f Fields, updatedAt time.Time) (*models.Review, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE reviews
		SET title = ?, author = ?, rating = ?, review_text = ?, updated_at = ?
		WHERE id = ?
	`, f.Title, f.Author, f.Rating, f.ReviewText, updatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}
