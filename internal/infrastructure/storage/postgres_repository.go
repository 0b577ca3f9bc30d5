package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
)

const newsTable = "news"

// ErrNotFound is returned by Get when no record has the requested id.
var ErrNotFound = errors.New("news record not found")

// created_at and expire_at are intentionally absent: they keep their first-write values.
const upsertSuffix = `ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	url = EXCLUDED.url,
	source = EXCLUDED.source,
	image_url = EXCLUDED.image_url,
	summary_bullets = EXCLUDED.summary_bullets,
	categories = EXCLUDED.categories,
	relevance = EXCLUDED.relevance,
	published_at = EXCLUDED.published_at`

// PostgresRepository persists news records into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.NewsRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Exists reports whether a record with the given id is stored.
func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	query, args, err := r.builder.
		Select("1").
		From(newsTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// Upsert writes the record keyed by id. Timestamps come from the database clock.
func (r *PostgresRepository) Upsert(ctx context.Context, rec domain.NewsRecord) error {
	query, args, err := r.builder.
		Insert(newsTable).
		Columns(
			"id", "title", "url", "source", "image_url",
			"summary_bullets", "categories", "relevance",
			"published_at", "created_at", "expire_at",
		).
		Values(
			rec.ID, rec.Title, rec.URL, rec.Source, nullString(rec.ImageURL),
			pq.Array(rec.SummaryBullets), pq.Array(categoryStrings(rec.Categories)), rec.Relevance,
			rec.PublishedAt.UTC(), sq.Expr("NOW()"), sq.Expr(expireExpr()),
		).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert news %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads a stored record by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (domain.NewsRecord, error) {
	query, args, err := r.builder.
		Select(
			"id", "title", "url", "source", "image_url",
			"summary_bullets", "categories", "relevance",
			"published_at", "created_at", "expire_at",
		).
		From(newsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.NewsRecord{}, fmt.Errorf("build get query: %w", err)
	}

	var (
		rec        domain.NewsRecord
		image      sql.NullString
		categories []string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.ID, &rec.Title, &rec.URL, &rec.Source, &image,
		pq.Array(&rec.SummaryBullets), pq.Array(&categories), &rec.Relevance,
		&rec.PublishedAt, &rec.CreatedAt, &rec.ExpireAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewsRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.NewsRecord{}, fmt.Errorf("get news %s: %w", id, err)
	}

	rec.ImageURL = image.String
	rec.Categories = make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		rec.Categories = append(rec.Categories, domain.Category(c))
	}
	return rec, nil
}

func expireExpr() string {
	days := int(domain.RetentionWindow.Hours() / 24)
	return fmt.Sprintf("NOW() + INTERVAL '%d days'", days)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func categoryStrings(categories []domain.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, string(c))
	}
	return out
}
