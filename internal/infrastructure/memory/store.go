// Package memory implementa los puertos de persistencia en proceso: pruebas, CLI sin base de
// datos y desarrollo local. Las transacciones trabajan sobre una copia del estado que se
// publica solo si la función termina sin error.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

var _ fiscal.FiscalTxRunner = (*Store)(nil)

// state datos transaccionales: series y documentos. Los valores guardados no se mutan:
// cada escritura reemplaza la entrada, así una copia superficial de los mapas basta.
type state struct {
	series map[string]entity.FiscalSeries
	docs   map[string]entity.FiscalDocument
	order  []string // ids en orden de inserción
}

func newState() *state {
	return &state{
		series: make(map[string]entity.FiscalSeries),
		docs:   make(map[string]entity.FiscalDocument),
	}
}

func (s *state) clone() *state {
	c := &state{
		series: make(map[string]entity.FiscalSeries, len(s.series)),
		docs:   make(map[string]entity.FiscalDocument, len(s.docs)),
		order:  append([]string(nil), s.order...),
	}
	for k, v := range s.series {
		c.series[k] = v
	}
	for k, v := range s.docs {
		c.docs[k] = v
	}
	return c
}

// Store agrupa el estado en memoria. txMu serializa escritores (equivale a un lock de tabla);
// mu protege la lectura y el reemplazo de st.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state

	master masterData
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState(), master: newMasterData()}
}

// RunFiscal ejecuta fn sobre una copia del estado y la publica si fn no devuelve error.
func (s *Store) RunFiscal(ctx context.Context, fn func(
	seriesRepo repository.SeriesRepository,
	docRepo repository.DocumentRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	staging := s.st.clone()
	s.mu.RUnlock()

	tx := &txView{st: staging}
	if err := fn(&SeriesRepo{view: tx}, &DocumentRepo{view: tx}); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = staging
	s.mu.Unlock()
	return nil
}

// Series devuelve el repositorio de series fuera de transacción.
func (s *Store) Series() *SeriesRepo { return &SeriesRepo{view: &storeView{s: s}} }

// Documents devuelve el repositorio de documentos fuera de transacción.
func (s *Store) Documents() *DocumentRepo { return &DocumentRepo{view: &storeView{s: s}} }

// view abstrae el acceso al estado: dentro de una transacción (sin locks, un solo escritor)
// o directo sobre el Store.
type view interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
}

type txView struct{ st *state }

func (v *txView) read(fn func(st *state) error) error  { return fn(v.st) }
func (v *txView) write(fn func(st *state) error) error { return fn(v.st) }

type storeView struct{ s *Store }

func (v *storeView) read(fn func(st *state) error) error {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return fn(v.s.st)
}

// write fuera de transacción: espera a que no haya transacciones en curso para no perder
// la escritura cuando se publique la copia.
func (v *storeView) write(fn func(st *state) error) error {
	v.s.txMu.Lock()
	defer v.s.txMu.Unlock()
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.st)
}
