package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finovo/bankcore/internal/domain"
)

const beneficiaryColumns = `id, user_id, name, account_number, bank_name, routing_number,
	email, phone, is_favorite, created_at, updated_at`

// BeneficiaryRepository implements usecase.BeneficiaryRepository.
type BeneficiaryRepository struct {
	db DB
}

// NewBeneficiaryRepository creates a new BeneficiaryRepository.
func NewBeneficiaryRepository(pool *pgxpool.Pool) *BeneficiaryRepository {
	return &BeneficiaryRepository{db: pool}
}

// Create inserts a beneficiary.
func (r *BeneficiaryRepository) Create(ctx context.Context, b *domain.Beneficiary) error {
	query := `INSERT INTO beneficiaries (` + beneficiaryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.UserID,
		b.Name,
		b.AccountNumber,
		b.BankName,
		b.RoutingNumber,
		b.Email,
		b.Phone,
		b.IsFavorite,
		b.CreatedAt,
		b.UpdatedAt,
	)
	return err
}

// GetByID retrieves a beneficiary by ID.
func (r *BeneficiaryRepository) GetByID(ctx context.Context, id string) (*domain.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE id = $1`

	b, err := scanBeneficiary(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBeneficiaryNotFound
	}
	return b, err
}

// ListByUser returns favorites first, then by name.
func (r *BeneficiaryRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE user_id = $1 ORDER BY is_favorite DESC, name, id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Beneficiary
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SetFavorite flags or unflags a beneficiary.
func (r *BeneficiaryRepository) SetFavorite(ctx context.Context, id string, favorite bool, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE beneficiaries SET is_favorite = $2, updated_at = $3 WHERE id = $1`, id, favorite, updatedAt)
	if err != nil {
		return err
	}
	return rowsAffected(tag, domain.ErrBeneficiaryNotFound)
}

// Delete removes a beneficiary.
func (r *BeneficiaryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM beneficiaries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return rowsAffected(tag, domain.ErrBeneficiaryNotFound)
}

func scanBeneficiary(row pgx.Row) (*domain.Beneficiary, error) {
	var b domain.Beneficiary
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Name,
		&b.AccountNumber,
		&b.BankName,
		&b.RoutingNumber,
		&b.Email,
		&b.Phone,
		&b.IsFavorite,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
