package fiscal_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	domfiscal "github.com/jhoicas/fiscal-ao/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/memory"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/signer"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

func baseFields(total string) domfiscal.Fields {
	return domfiscal.Fields{}.
		Str(domfiscal.FieldDate, "2024-01-01").
		Str(domfiscal.FieldDocumentType, "FT").
		Str(domfiscal.FieldTotal, total)
}

func TestSign_PrimerDocumentoDeLaSerie(t *testing.T) {
	e := newTestEnv(t)
	e.addSeries(t, "2024A", entity.DocTypeFatura)

	res, err := e.signer.Sign(context.Background(), tenant, "2024A", baseFields("100.00"), nil)
	require.NoError(t, err)

	assert.Equal(t, "", res.PreviousHash)
	assert.Len(t, res.Hash, 44)
	assert.True(t, strings.HasSuffix(res.ATCUD, "-1"), res.ATCUD)
	assert.Equal(t, int64(1), res.Number)

	want := domfiscal.ComputeHash(baseFields("100.00").
		Str(domfiscal.FieldSeries, "2024A").
		Str(domfiscal.FieldSequence, "1"), "")
	assert.Equal(t, want, res.Hash)
}

func TestSign_SegundoDocumentoEnlazaConElPrimero(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "2024A", entity.DocTypeFatura)

	first, err := e.signer.Sign(ctx, tenant, "2024A", baseFields("100.00"), nil)
	require.NoError(t, err)
	second, err := e.signer.Sign(ctx, tenant, "2024A", baseFields("250.50"), nil)
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.PreviousHash)
	assert.Equal(t, int64(2), second.Number)
	assert.Equal(t, "AGT2024A-2", second.ATCUD)

	s, err := e.store.Series().Get(ctx, tenant, "2024A")
	require.NoError(t, err)
	assert.Equal(t, second.Hash, s.LastHash)
	assert.Equal(t, int64(2), s.LastNumber)
}

func TestSign_FirmaVerificable(t *testing.T) {
	e := newTestEnv(t)
	e.addSeries(t, "2024A", entity.DocTypeFatura)

	res, err := e.signer.Sign(context.Background(), tenant, "2024A", baseFields("100.00"), nil)
	require.NoError(t, err)

	pub, err := signer.ParsePublicKeyPEM(testKeyPair(t, tenant).PublicKeyPEM)
	require.NoError(t, err)
	assert.True(t, e.signer.Verify(pub, res.Hash, res.Signature))

	tampered := []byte(res.Hash)
	tampered[0] ^= 0x01
	assert.False(t, e.signer.Verify(pub, string(tampered), res.Signature))
}

func TestSign_ConcurrenteFormaUnaSolaCadena(t *testing.T) {
	const n = 25
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "2024A", entity.DocTypeFatura)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*entity.SignedResult
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.signer.Sign(ctx, tenant, "2024A", baseFields("10.00"), nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, results, n)
	sort.Slice(results, func(i, j int) bool { return results[i].Number < results[j].Number })
	prev := ""
	for i, r := range results {
		assert.Equal(t, int64(i+1), r.Number)
		assert.Equal(t, prev, r.PreviousHash, "documento %d", r.Number)
		prev = r.Hash
	}
}

func TestSign_ErrorAlPersistirNoAvanzaLaSerie(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "2024A", entity.DocTypeFatura)

	boom := errors.New("insert falló")
	_, err := e.signer.Sign(ctx, tenant, "2024A", baseFields("100.00"),
		func(context.Context, *entity.SignedResult, repository.DocumentRepository) error { return boom })
	require.ErrorIs(t, err, boom)

	s, err := e.store.Series().Get(ctx, tenant, "2024A")
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.LastNumber)
	assert.Equal(t, "", s.LastHash)

	res, err := e.signer.Sign(ctx, tenant, "2024A", baseFields("100.00"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Number)
	assert.Equal(t, "", res.PreviousHash)
}

func TestSign_SinLlaveNoTocaLaSerie(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	require.NoError(t, e.store.Series().Create(ctx, &entity.FiscalSeries{
		TenantID: "t2", Code: "B", DocumentType: entity.DocTypeFatura, ValidationCode: "AGTB", Active: true,
	}))

	_, err := e.signer.Sign(ctx, "t2", "B", baseFields("1.00"), nil)
	require.ErrorIs(t, err, domain.ErrSigningUnavailable)

	require.NoError(t, e.keys.Create(ctx, &entity.KeyPair{TenantID: "t3", PrivateKeyPEM: []byte("no es un PEM")}))
	_, err = e.signer.Sign(ctx, "t3", "B", baseFields("1.00"), nil)
	require.ErrorIs(t, err, domain.ErrSigningUnavailable)

	s, err := e.store.Series().Get(ctx, "t2", "B")
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.LastNumber)
}

func TestSign_SerieInexistenteOInactiva(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	_, err := e.signer.Sign(ctx, tenant, "NOPE", baseFields("1.00"), nil)
	assert.ErrorIs(t, err, domain.ErrSeriesNotFound)

	require.NoError(t, e.store.Series().Create(ctx, &entity.FiscalSeries{
		TenantID: tenant, Code: "OLD", DocumentType: entity.DocTypeFatura, ValidationCode: "AGTOLD", Active: false,
	}))
	_, err = e.signer.Sign(ctx, tenant, "OLD", baseFields("1.00"), nil)
	assert.ErrorIs(t, err, domain.ErrSeriesInactive)
}

// staleTx entrega a la firma una lectura de la serie desactualizada, como si otro
// escritor la hubiera avanzado sin respetar el lock.
type staleTx struct{ store *memory.Store }

type staleSeriesRepo struct{ repository.SeriesRepository }

func (r staleSeriesRepo) GetForUpdate(ctx context.Context, tenantID, code string) (*entity.FiscalSeries, error) {
	s, err := r.SeriesRepository.GetForUpdate(ctx, tenantID, code)
	if err != nil || s == nil {
		return s, err
	}
	s.LastHash, s.LastNumber = "", 0
	return s, nil
}

func (tx staleTx) RunFiscal(ctx context.Context, fn func(repository.SeriesRepository, repository.DocumentRepository) error) error {
	return tx.store.RunFiscal(ctx, func(series repository.SeriesRepository, docs repository.DocumentRepository) error {
		return fn(staleSeriesRepo{series}, docs)
	})
}

func TestSign_CompareAndSwapDetectaConflicto(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.addSeries(t, "2024A", entity.DocTypeFatura)
	_, err := e.signer.Sign(ctx, tenant, "2024A", baseFields("100.00"), nil)
	require.NoError(t, err)

	stale := fiscal.NewDocumentSigner(e.keys, staleTx{e.store}, memory.NewKeyedMutex(), signer.NewPSSSigner(), logger.Nop())
	_, err = stale.Sign(ctx, tenant, "2024A", baseFields("100.00"), nil)
	require.ErrorIs(t, err, domain.ErrChainConflict)

	s, err := e.store.Series().Get(ctx, tenant, "2024A")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.LastNumber)
}

func TestSign_ContextoCanceladoEsperandoElLock(t *testing.T) {
	e := newTestEnv(t)
	e.addSeries(t, "2024A", entity.DocTypeFatura)

	locker := memory.NewKeyedMutex()
	unlock, err := locker.Lock(context.Background(), entity.SeriesLockKey(tenant, "2024A"))
	require.NoError(t, err)
	defer unlock()

	ds := fiscal.NewDocumentSigner(e.keys, e.store, locker, signer.NewPSSSigner(), logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ds.Sign(ctx, tenant, "2024A", baseFields("1.00"), nil)
	require.ErrorIs(t, err, context.Canceled)
}
