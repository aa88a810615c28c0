package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

var _ repository.SeriesRepository = (*SeriesRepo)(nil)

// SeriesRepo implementación de SeriesRepository (usable con pool o tx).
type SeriesRepo struct {
	q Querier
}

// NewSeriesRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSeriesRepository(q Querier) *SeriesRepo {
	return &SeriesRepo{q: q}
}

const seriesColumns = `id, company_id, code, document_type, validation_code, last_hash, last_number, active, created_at, updated_at`

// Create persiste una serie nueva.
func (r *SeriesRepo) Create(ctx context.Context, s *entity.FiscalSeries) error {
	query := `
		INSERT INTO fiscal_series (` + seriesColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.TenantID, s.Code, string(s.DocumentType), s.ValidationCode,
		s.LastHash, s.LastNumber, s.Active, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: serie %s", domain.ErrDuplicate, s.Code)
		}
		return fmt.Errorf("insert fiscal_series: %w", err)
	}
	return nil
}

// Get obtiene una serie; nil, nil si no existe.
func (r *SeriesRepo) Get(ctx context.Context, tenantID, code string) (*entity.FiscalSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM fiscal_series WHERE company_id = $1 AND code = $2`
	return r.getOne(ctx, query, tenantID, code)
}

// GetForUpdate obtiene la serie y bloquea la fila hasta el fin de la tx (SELECT FOR UPDATE).
func (r *SeriesRepo) GetForUpdate(ctx context.Context, tenantID, code string) (*entity.FiscalSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM fiscal_series WHERE company_id = $1 AND code = $2 FOR UPDATE`
	return r.getOne(ctx, query, tenantID, code)
}

// Advance actualiza el último hash/número solo si no cambiaron desde la lectura.
func (r *SeriesRepo) Advance(ctx context.Context, tenantID, code, expectedHash string, expectedNumber int64, newHash string, newNumber int64) error {
	query := `
		UPDATE fiscal_series
		SET last_hash = $5, last_number = $6, updated_at = $7
		WHERE company_id = $1 AND code = $2 AND last_hash = $3 AND last_number = $4`
	tag, err := r.q.Exec(ctx, query, tenantID, code, expectedHash, expectedNumber, newHash, newNumber, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("advance fiscal_series: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: serie %s ya no está en %d", domain.ErrChainConflict, code, expectedNumber)
	}
	return nil
}

// ListByTenant lista las series de la empresa ordenadas por código.
func (r *SeriesRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.FiscalSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM fiscal_series WHERE company_id = $1 ORDER BY code`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list fiscal_series: %w", err)
	}
	defer rows.Close()
	var list []*entity.FiscalSeries
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SeriesRepo) getOne(ctx context.Context, query, tenantID, code string) (*entity.FiscalSeries, error) {
	s, err := scanSeries(r.q.QueryRow(ctx, query, tenantID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func scanSeries(row pgx.Row) (*entity.FiscalSeries, error) {
	var s entity.FiscalSeries
	var docType string
	err := row.Scan(&s.ID, &s.TenantID, &s.Code, &docType, &s.ValidationCode,
		&s.LastHash, &s.LastNumber, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan fiscal_series: %w", err)
	}
	s.DocumentType = entity.DocumentType(docType)
	return &s, nil
}
