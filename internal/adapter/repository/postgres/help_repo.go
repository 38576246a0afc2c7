package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finovo/bankcore/internal/domain"
)

// HelpRepository implements usecase.HelpRepository with Postgres full-text search.
type HelpRepository struct {
	db DB
}

// NewHelpRepository creates a new HelpRepository.
func NewHelpRepository(pool *pgxpool.Pool) *HelpRepository {
	return &HelpRepository{db: pool}
}

// SearchFAQs matches the query against FAQ questions, best match first.
func (r *HelpRepository) SearchFAQs(ctx context.Context, query string, limit int) ([]domain.HelpArticle, error) {
	sql := `
		SELECT id, question, answer, category
		FROM faqs
		WHERE to_tsvector('english', question) @@ websearch_to_tsquery('english', $1)
		ORDER BY ts_rank(to_tsvector('english', question), websearch_to_tsquery('english', $1)) DESC, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, err
	}
	return collectHelp(rows, domain.HelpSourceFAQ)
}

// SearchNotices matches the query against notice bodies, newest first among
// equally ranked matches.
func (r *HelpRepository) SearchNotices(ctx context.Context, query string, limit int) ([]domain.HelpArticle, error) {
	sql := `
		SELECT id, title, content, category
		FROM notices
		WHERE published_at <= NOW()
			AND to_tsvector('english', content) @@ websearch_to_tsquery('english', $1)
		ORDER BY ts_rank(to_tsvector('english', content), websearch_to_tsquery('english', $1)) DESC, published_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, err
	}
	return collectHelp(rows, domain.HelpSourceNotice)
}

func collectHelp(rows pgx.Rows, source domain.HelpSource) ([]domain.HelpArticle, error) {
	defer rows.Close()

	var out []domain.HelpArticle
	for rows.Next() {
		a := domain.HelpArticle{Source: source}
		if err := rows.Scan(&a.ID, &a.Title, &a.Snippet, &a.Category); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
