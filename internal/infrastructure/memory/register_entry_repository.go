package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
)

var _ repository.RegisterEntryRepository = (*EntryRepo)(nil)

// EntryRepo registro de controlados en memoria. Devuelve copias: mutar el resultado no altera el store.
type EntryRepo struct {
	store *Store
	tx    *tx
}

// NewEntryRepository repositorio fuera de transacción (consultas).
func NewEntryRepository(store *Store) *EntryRepo {
	return newEntryRepo(store, nil)
}

func newEntryRepo(store *Store, t *tx) *EntryRepo {
	return &EntryRepo{store: store, tx: t}
}

func (r *EntryRepo) Create(_ context.Context, e *entity.RegisterEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[e.ProductID]; !ok {
		return fmt.Errorf("create register entry: %w", domain.ErrNotFound)
	}
	r.store.nextID++
	e.ID = r.store.nextID
	r.store.entries[e.ID] = copyEntry(e)
	id := e.ID
	r.tx.record(func() { delete(r.store.entries, id) })
	return nil
}

func (r *EntryRepo) GetByID(_ context.Context, id int64) (*entity.RegisterEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.entries[id]
	if !ok {
		return nil, nil
	}
	return copyEntry(e), nil
}

func (r *EntryRepo) Update(_ context.Context, e *entity.RegisterEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	prev, ok := r.store.entries[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	updated := copyEntry(e)
	// las referencias al documento origen no son editables
	updated.SourceOrderRef = prev.SourceOrderRef
	updated.SourceTransferRef = prev.SourceTransferRef
	updated.CreatedAt = prev.CreatedAt
	r.store.entries[e.ID] = updated
	r.tx.record(func() { r.store.entries[prev.ID] = prev })
	return nil
}

func (r *EntryRepo) UpdateBalances(_ context.Context, changes []entity.BalanceChange) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range changes {
		if _, ok := r.store.entries[c.EntryID]; !ok {
			return fmt.Errorf("update running balance %d: %w", c.EntryID, domain.ErrNotFound)
		}
	}
	for _, c := range changes {
		e := r.store.entries[c.EntryID]
		old := e.RunningBalance
		e.RunningBalance = c.RunningBalance
		r.tx.record(func() { e.RunningBalance = old })
	}
	return nil
}

func (r *EntryRepo) ListByProduct(_ context.Context, productID string, from, to *time.Time) ([]*entity.RegisterEntry, error) {
	return r.filter(func(e *entity.RegisterEntry) bool {
		return e.ProductID == productID && inRange(e.Date, from, to)
	}), nil
}

func (r *EntryRepo) LastByProduct(_ context.Context, productID string) (*entity.RegisterEntry, error) {
	return last(r.filter(func(e *entity.RegisterEntry) bool { return e.ProductID == productID })), nil
}

func (r *EntryRepo) LastAtOrBefore(_ context.Context, productID string, t time.Time) (*entity.RegisterEntry, error) {
	return last(r.filter(func(e *entity.RegisterEntry) bool {
		return e.ProductID == productID && !e.Date.After(t)
	})), nil
}

func (r *EntryRepo) CountByType(_ context.Context, txType *entity.TransactionType, from, to *time.Time) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := 0
	for _, e := range r.store.entries {
		if txType != nil && e.TransactionType != *txType {
			continue
		}
		if inRange(e.Date, from, to) {
			n++
		}
	}
	return n, nil
}

func (r *EntryRepo) ListProductIDs(_ context.Context) ([]string, error) {
	r.store.mu.RLock()
	seen := make(map[string]struct{})
	for _, e := range r.store.entries {
		seen[e.ProductID] = struct{}{}
	}
	r.store.mu.RUnlock()
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// filter copia los asientos que cumplen match en orden (fecha, id).
func (r *EntryRepo) filter(match func(*entity.RegisterEntry) bool) []*entity.RegisterEntry {
	r.store.mu.RLock()
	var out []*entity.RegisterEntry
	for _, e := range r.store.entries {
		if match(e) {
			out = append(out, copyEntry(e))
		}
	}
	r.store.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func last(entries []*entity.RegisterEntry) *entity.RegisterEntry {
	if len(entries) == 0 {
		return nil
	}
	return entries[len(entries)-1]
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
