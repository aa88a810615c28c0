package repository

import (
	"context"
	"time"

	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para documentos fiscales.
// Los campos fiscales y el hash son inmutables: solo UpdateStatus modifica un documento.
type DocumentRepository interface {
	Create(ctx context.Context, doc entity.FiscalDocument) error
	// GetByID / GetByNumber devuelven nil, nil si no existe.
	GetByID(ctx context.Context, tenantID, id string) (entity.FiscalDocument, error)
	GetByNumber(ctx context.Context, tenantID, documentNo string) (entity.FiscalDocument, error)
	// GetByNumberForUpdate igual que GetByNumber pero bloquea la fila hasta el fin de la
	// transacción. Las reglas entre documentos (NC, ND, RC, GT, anulación) leen así el documento referenciado.
	GetByNumberForUpdate(ctx context.Context, tenantID, documentNo string) (entity.FiscalDocument, error)
	// ListByPeriod lista los documentos con fecha en [from, to] (ambos inclusive, por día),
	// firmados o no; el filtro de firma es responsabilidad del exportador.
	ListByPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]entity.FiscalDocument, error)
	// ListBySeries lista los documentos de la serie ordenados por número ascendente.
	ListBySeries(ctx context.Context, tenantID, seriesCode string) ([]entity.FiscalDocument, error)
	// ListReferencing lista los documentos (NC, ND, RC, GT) que apuntan a documentNo.
	ListReferencing(ctx context.Context, tenantID, documentNo string) ([]entity.FiscalDocument, error)
	UpdateStatus(ctx context.Context, tenantID, id, status, reason string, at time.Time) error
}
