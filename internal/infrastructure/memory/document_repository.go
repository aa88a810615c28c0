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

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación en memoria de DocumentRepository.
// Guarda y devuelve copias: el caller nunca comparte punteros con el estado.
type DocumentRepo struct {
	view view
}

// Create persiste un documento; domain.ErrDuplicate si el id o el número ya existen.
func (r *DocumentRepo) Create(_ context.Context, doc entity.FiscalDocument) error {
	h := doc.Header()
	return r.view.write(func(st *state) error {
		if _, ok := st.docs[h.ID]; ok {
			return fmt.Errorf("%w: documento %s", domain.ErrDuplicate, h.ID)
		}
		if h.DocumentNo != "" {
			for _, d := range st.docs {
				dh := d.Header()
				if dh.TenantID == h.TenantID && dh.DocumentNo == h.DocumentNo {
					return fmt.Errorf("%w: documento %s", domain.ErrDuplicate, h.DocumentNo)
				}
			}
		}
		st.docs[h.ID] = cloneDocument(doc)
		st.order = append(st.order, h.ID)
		return nil
	})
}

// GetByID obtiene un documento; nil, nil si no existe o es de otra empresa.
func (r *DocumentRepo) GetByID(_ context.Context, tenantID, id string) (entity.FiscalDocument, error) {
	var out entity.FiscalDocument
	err := r.view.read(func(st *state) error {
		if d, ok := st.docs[id]; ok && d.Header().TenantID == tenantID {
			out = cloneDocument(d)
		}
		return nil
	})
	return out, err
}

// GetByNumber obtiene un documento por su número ("FT 2024A/3").
func (r *DocumentRepo) GetByNumber(_ context.Context, tenantID, documentNo string) (entity.FiscalDocument, error) {
	docs, err := r.filter(func(h *entity.DocumentHeader, _ entity.FiscalDocument) bool {
		return h.TenantID == tenantID && h.DocumentNo == documentNo
	})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// GetByNumberForUpdate en memoria RunFiscal ya serializa las transacciones (txMu).
func (r *DocumentRepo) GetByNumberForUpdate(ctx context.Context, tenantID, documentNo string) (entity.FiscalDocument, error) {
	return r.GetByNumber(ctx, tenantID, documentNo)
}

// ListByPeriod documentos con fecha entre from y to (por día, ambos inclusive).
func (r *DocumentRepo) ListByPeriod(_ context.Context, tenantID string, from, to time.Time) ([]entity.FiscalDocument, error) {
	start := dayStart(from)
	end := dayStart(to).AddDate(0, 0, 1)
	docs, err := r.filter(func(h *entity.DocumentHeader, _ entity.FiscalDocument) bool {
		return h.TenantID == tenantID && !h.Date.Before(start) && h.Date.Before(end)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		hi, hj := docs[i].Header(), docs[j].Header()
		if !hi.Date.Equal(hj.Date) {
			return hi.Date.Before(hj.Date)
		}
		if hi.SeriesCode != hj.SeriesCode {
			return hi.SeriesCode < hj.SeriesCode
		}
		return hi.Number < hj.Number
	})
	return docs, nil
}

// ListBySeries documentos de la serie por número ascendente.
func (r *DocumentRepo) ListBySeries(_ context.Context, tenantID, seriesCode string) ([]entity.FiscalDocument, error) {
	docs, err := r.filter(func(h *entity.DocumentHeader, _ entity.FiscalDocument) bool {
		return h.TenantID == tenantID && h.SeriesCode == seriesCode && h.IsSigned()
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Header().Number < docs[j].Header().Number })
	return docs, nil
}

// ListReferencing documentos que apuntan a documentNo (NC, ND, RC, GT).
func (r *DocumentRepo) ListReferencing(_ context.Context, tenantID, documentNo string) ([]entity.FiscalDocument, error) {
	return r.filter(func(h *entity.DocumentHeader, d entity.FiscalDocument) bool {
		if h.TenantID != tenantID {
			return false
		}
		for _, ref := range entity.ReferencedDocuments(d) {
			if ref == documentNo {
				return true
			}
		}
		return false
	})
}

// UpdateStatus cambia solo el estado; los campos fiscales y el hash no se tocan.
func (r *DocumentRepo) UpdateStatus(_ context.Context, tenantID, id, status, reason string, at time.Time) error {
	return r.view.write(func(st *state) error {
		d, ok := st.docs[id]
		if !ok || d.Header().TenantID != tenantID {
			return domain.ErrNotFound
		}
		c := cloneDocument(d)
		h := c.Header()
		h.Status = status
		h.StatusReason = reason
		h.StatusDate = at
		st.docs[id] = c
		return nil
	})
}

func (r *DocumentRepo) filter(match func(h *entity.DocumentHeader, d entity.FiscalDocument) bool) ([]entity.FiscalDocument, error) {
	var out []entity.FiscalDocument
	err := r.view.read(func(st *state) error {
		for _, id := range st.order {
			d := st.docs[id]
			if match(d.Header(), d) {
				out = append(out, cloneDocument(d))
			}
		}
		return nil
	})
	return out, err
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// cloneDocument copia la variante y sus slices.
func cloneDocument(doc entity.FiscalDocument) entity.FiscalDocument {
	var out entity.FiscalDocument
	switch d := doc.(type) {
	case *entity.Venda:
		c := *d
		out = &c
	case *entity.FaturaCredito:
		c := *d
		out = &c
	case *entity.Recibo:
		c := *d
		c.Settlements = append([]entity.Settlement(nil), d.Settlements...)
		out = &c
	case *entity.NotaCredito:
		c := *d
		out = &c
	case *entity.NotaDebito:
		c := *d
		out = &c
	case *entity.DocumentoTransporte:
		c := *d
		out = &c
	default:
		return doc
	}
	h := out.Header()
	h.Lines = append([]entity.DocumentLine(nil), h.Lines...)
	return out
}
