package fiscal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/domain"
)

func TestSeriesUseCase(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	out, err := e.series.Create(ctx, tenant, dto.CreateSeriesRequest{Code: "2024B", DocumentType: "ft", ValidationCode: "AGT77"})
	require.NoError(t, err)
	assert.Equal(t, "FT", out.DocumentType)
	assert.Equal(t, int64(0), out.LastNumber)
	assert.Equal(t, "", out.LastHash)
	assert.True(t, out.Active)

	_, err = e.series.Create(ctx, tenant, dto.CreateSeriesRequest{Code: "2024A", DocumentType: "FR", ValidationCode: "AGT78"})
	require.NoError(t, err)

	_, err = e.series.Create(ctx, tenant, dto.CreateSeriesRequest{Code: "2024B", DocumentType: "FT", ValidationCode: "AGT77"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = e.series.Create(ctx, tenant, dto.CreateSeriesRequest{Code: "X", DocumentType: "ZZ", ValidationCode: "AGT"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.series.Create(ctx, tenant, dto.CreateSeriesRequest{Code: "A/B", DocumentType: "FT", ValidationCode: "AGT"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := e.series.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024A", list[0].Code)
	assert.Equal(t, "2024B", list[1].Code)
}
