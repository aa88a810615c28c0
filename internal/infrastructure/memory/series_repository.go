package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

var _ repository.SeriesRepository = (*SeriesRepo)(nil)

// SeriesRepo implementación en memoria de SeriesRepository.
type SeriesRepo struct {
	view view
}

func seriesKey(tenantID, code string) string { return tenantID + "|" + code }

// Create persiste una serie nueva; domain.ErrDuplicate si el código ya existe en la empresa.
func (r *SeriesRepo) Create(_ context.Context, s *entity.FiscalSeries) error {
	return r.view.write(func(st *state) error {
		k := seriesKey(s.TenantID, s.Code)
		if _, ok := st.series[k]; ok {
			return fmt.Errorf("%w: serie %s", domain.ErrDuplicate, s.Code)
		}
		st.series[k] = *s
		return nil
	})
}

// Get obtiene una serie; nil, nil si no existe.
func (r *SeriesRepo) Get(_ context.Context, tenantID, code string) (*entity.FiscalSeries, error) {
	var out *entity.FiscalSeries
	err := r.view.read(func(st *state) error {
		if s, ok := st.series[seriesKey(tenantID, code)]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

// GetForUpdate en memoria equivale a Get: RunFiscal ya serializa a los escritores.
func (r *SeriesRepo) GetForUpdate(ctx context.Context, tenantID, code string) (*entity.FiscalSeries, error) {
	return r.Get(ctx, tenantID, code)
}

// Advance compare-and-swap del último hash y número de la serie.
func (r *SeriesRepo) Advance(_ context.Context, tenantID, code, expectedHash string, expectedNumber int64, newHash string, newNumber int64) error {
	return r.view.write(func(st *state) error {
		k := seriesKey(tenantID, code)
		s, ok := st.series[k]
		if !ok {
			return domain.ErrSeriesNotFound
		}
		if s.LastHash != expectedHash || s.LastNumber != expectedNumber {
			return fmt.Errorf("%w: serie %s en %d, se esperaba %d", domain.ErrChainConflict, code, s.LastNumber, expectedNumber)
		}
		s.LastHash = newHash
		s.LastNumber = newNumber
		s.UpdatedAt = time.Now().UTC()
		st.series[k] = s
		return nil
	})
}

// ListByTenant lista las series de la empresa ordenadas por código.
func (r *SeriesRepo) ListByTenant(_ context.Context, tenantID string) ([]*entity.FiscalSeries, error) {
	var out []*entity.FiscalSeries
	err := r.view.read(func(st *state) error {
		for _, s := range st.series {
			if s.TenantID == tenantID {
				s := s
				out = append(out, &s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}
