// Package fiscal casos de uso de la cadena fiscal AGT: firma de documentos por serie,
// llaves de las empresas, ciclo de vida de documentos y exportación SAF-T.
package fiscal

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	domfiscal "github.com/jhoicas/fiscal-ao/internal/domain/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/signer"
	"github.com/jhoicas/fiscal-ao/pkg/agt"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// DocumentSigner avanza la cadena de una serie y firma el hash del documento.
// Es el único que modifica FiscalSeries.LastHash / LastNumber.
type DocumentSigner struct {
	keys   repository.KeyStore
	tx     FiscalTxRunner
	locker SeriesLocker
	hasher agt.HashSigner
	log    *logger.Logger
}

// NewDocumentSigner construye el firmador.
func NewDocumentSigner(keys repository.KeyStore, tx FiscalTxRunner, locker SeriesLocker, hasher agt.HashSigner, log *logger.Logger) *DocumentSigner {
	return &DocumentSigner{keys: keys, tx: tx, locker: locker, hasher: hasher, log: log}
}

// Sign asigna el siguiente número de la serie, calcula el hash encadenado, lo firma y
// avanza la serie; persist guarda el documento en la misma transacción.
//
// Los campos series y sequence los fija el firmador. Cualquier error revierte todo: la
// serie no avanza y el documento no queda emitido. No se reintenta: ante
// domain.ErrChainConflict el caller repite la emisión completa.
func (s *DocumentSigner) Sign(ctx context.Context, tenantID, seriesCode string, fields domfiscal.Fields, persist PersistFunc) (*entity.SignedResult, error) {
	if tenantID == "" || seriesCode == "" {
		return nil, domain.ErrInvalidInput
	}
	priv, err := s.privateKey(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, entity.SeriesLockKey(tenantID, seriesCode))
	if err != nil {
		return nil, fmt.Errorf("lock de la serie %s: %w", seriesCode, err)
	}
	defer unlock()

	var result *entity.SignedResult
	err = s.tx.RunFiscal(ctx, func(seriesRepo repository.SeriesRepository, docRepo repository.DocumentRepository) error {
		series, err := seriesRepo.GetForUpdate(ctx, tenantID, seriesCode)
		if err != nil {
			return fmt.Errorf("leer serie: %w", err)
		}
		if series == nil {
			return fmt.Errorf("%w: %s", domain.ErrSeriesNotFound, seriesCode)
		}
		if !series.Active {
			return fmt.Errorf("%w: %s", domain.ErrSeriesInactive, seriesCode)
		}

		number := series.LastNumber + 1
		hashFields := fields.
			Set(domfiscal.FieldSeries, series.Code).
			Set(domfiscal.FieldSequence, strconv.FormatInt(number, 10))
		hash := domfiscal.ComputeHash(hashFields, series.LastHash)

		signature, err := s.hasher.Sign(priv, hash)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSigningUnavailable, err)
		}
		if err := seriesRepo.Advance(ctx, tenantID, series.Code, series.LastHash, series.LastNumber, hash, number); err != nil {
			return err
		}

		res := &entity.SignedResult{
			Number:       number,
			Hash:         hash,
			PreviousHash: series.LastHash,
			Signature:    signature,
			ATCUD:        series.ATCUD(number),
		}
		if persist != nil {
			if err := persist(ctx, res, docRepo); err != nil {
				return err
			}
		}
		result = res
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("tenant_id", tenantID).Str("series", seriesCode).Msg("firma abortada")
		return nil, err
	}

	s.log.Info().
		Str("tenant_id", tenantID).
		Str("series", seriesCode).
		Int64("number", result.Number).
		Str("atcud", result.ATCUD).
		Msg("documento firmado")
	return result, nil
}

// Verify indica si signature corresponde a hash con la llave pública.
func (s *DocumentSigner) Verify(pub *rsa.PublicKey, hash, signature string) bool {
	return s.hasher.Verify(pub, hash, signature)
}

// privateKey carga la llave antes de tocar la serie: sin llave no hay emisión.
func (s *DocumentSigner) privateKey(ctx context.Context, tenantID string) (*rsa.PrivateKey, error) {
	kp, err := s.keys.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigningUnavailable, err)
	}
	if kp == nil || len(kp.PrivateKeyPEM) == 0 {
		return nil, fmt.Errorf("%w: la empresa %s no tiene llaves", domain.ErrSigningUnavailable, tenantID)
	}
	priv, err := signer.ParsePrivateKeyPEM(kp.PrivateKeyPEM)
	if err != nil {
		if errors.Is(err, signer.ErrInvalidKey) {
			return nil, fmt.Errorf("%w: %v", domain.ErrSigningUnavailable, err)
		}
		return nil, err
	}
	return priv, nil
}
