// Package bootstrap arma el grafo de dependencias compartido por la API y el CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/fiscal-ao/internal/application/auth"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/application/masterdata"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/keystore"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/memory"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/postgres"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/redislock"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/saft"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/signer"
	"github.com/jhoicas/fiscal-ao/pkg/config"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// Services casos de uso listos para usar.
type Services struct {
	Auth       *auth.AuthUseCase
	KeyManager *fiscal.KeyManager
	Series     *fiscal.SeriesUseCase
	Documents  *fiscal.DocumentUseCase
	Export     *fiscal.ExportUseCase
	Companies  *masterdata.CompanyUseCase
	Customers  *masterdata.CustomerUseCase
	Products   *masterdata.ProductUseCase

	pool  *pgxpool.Pool
	redis *redis.Client
}

// Close libera el pool de PostgreSQL y el cliente Redis.
func (s *Services) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// NewKeyManager KeyManager sobre el KeyStore en archivos; no requiere base de datos.
func NewKeyManager(cfg *config.Config, log *logger.Logger) *fiscal.KeyManager {
	keys := keystore.NewFileStore(cfg.Signing.KeyStoreDir, cfg.Signing.P12Password)
	return fiscal.NewKeyManager(keys, cfg.Signing.KeyBits, log)
}

// New conecta PostgreSQL (y Redis si REDIS_ADDR está definido) y construye los casos de uso.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Services, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	svc := &Services{pool: pool}

	var locker fiscal.SeriesLocker = memory.NewKeyedMutex()
	if cfg.Redis.Enabled() {
		svc.redis = redislock.NewClient(cfg.Redis)
		if err := svc.redis.Ping(ctx).Err(); err != nil {
			svc.Close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		locker = redislock.New(svc.redis, cfg.Signing.LockTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("lock de series en Redis")
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: lock de series en proceso, no usar con varias réplicas")
	}

	keys := keystore.NewFileStore(cfg.Signing.KeyStoreDir, cfg.Signing.P12Password)
	seriesRepo := postgres.NewSeriesRepository(pool)
	docRepo := postgres.NewDocumentRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ds := fiscal.NewDocumentSigner(keys, txRunner, locker, signer.NewPSSSigner(), log)
	exporter := saft.NewExporter(companyRepo, customerRepo, productRepo, docRepo, saft.ProducerInfo{
		ProductID:         cfg.SAFT.ProductID,
		ProductVersion:    cfg.SAFT.ProductVersion,
		ProductCompanyNIF: cfg.SAFT.ProductCompanyNIF,
	})

	svc.Auth = auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
	svc.KeyManager = fiscal.NewKeyManager(keys, cfg.Signing.KeyBits, log)
	svc.Series = fiscal.NewSeriesUseCase(seriesRepo, log)
	svc.Documents = fiscal.NewDocumentUseCase(seriesRepo, docRepo, customerRepo, keys, txRunner, ds, log)
	svc.Export = fiscal.NewExportUseCase(exporter, saft.NewValidator(), docRepo, log)
	svc.Companies = masterdata.NewCompanyUseCase(companyRepo, log)
	svc.Customers = masterdata.NewCustomerUseCase(customerRepo, log)
	svc.Products = masterdata.NewProductUseCase(productRepo, log)
	return svc, nil
}
