// Package memory implementa los puertos del registro en memoria (desarrollo y tests).
// Las transacciones bloquean productos con GetForUpdate y revierten con un undo log.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
)

// Store datos compartidos por todos los repositorios y transacciones en memoria.
type Store struct {
	mu       sync.RWMutex
	products map[string]*entity.Product
	users    map[string]*entity.User
	entries  map[int64]*entity.RegisterEntry
	nextID   int64 // los IDs no se reutilizan aunque la tx se revierta

	locksMu sync.Mutex
	locks   map[string]chan struct{} // semáforo por producto (capacidad 1)
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		users:    make(map[string]*entity.User),
		entries:  make(map[int64]*entity.RegisterEntry),
		locks:    make(map[string]chan struct{}),
	}
}

func (s *Store) productLock(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

// tx estado de una transacción: productos bloqueados y acciones de reversión.
// nil = escritura directa sin transacción.
type tx struct {
	store *Store
	held  map[string]chan struct{}
	undo  []func()
}

func newTx(s *Store) *tx {
	return &tx{store: s, held: make(map[string]chan struct{})}
}

// lock espera el semáforo del producto. Reentrante dentro de la misma tx.
func (t *tx) lock(ctx context.Context, productID string) error {
	if _, ok := t.held[productID]; ok {
		return nil
	}
	l := t.store.productLock(productID)
	select {
	case l <- struct{}{}:
		t.held[productID] = l
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// record apila una reversión; debe llamarse con store.mu tomado.
func (t *tx) record(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

// rollback revierte en orden inverso antes de liberar los bloqueos.
func (t *tx) rollback() {
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.store.mu.Unlock()
	t.release()
}

func (t *tx) commit() {
	t.undo = nil
	t.release()
}

func (t *tx) release() {
	for id, l := range t.held {
		<-l
		delete(t.held, id)
	}
}

func copyEntry(e *entity.RegisterEntry) *entity.RegisterEntry {
	c := *e
	return &c
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func copyUser(u *entity.User) *entity.User {
	c := *u
	return &c
}
