package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo catálogo de medicamentos en memoria.
type ProductRepo struct {
	store *Store
	tx    *tx
}

// NewProductRepository repositorio fuera de transacción.
func NewProductRepository(store *Store) *ProductRepo {
	return newProductRepo(store, nil)
}

func newProductRepo(store *Store, t *tx) *ProductRepo {
	return &ProductRepo{store: store, tx: t}
}

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[product.ID]; ok {
		return domain.ErrDuplicate
	}
	r.store.products[product.ID] = copyProduct(product)
	id := product.ID
	r.tx.record(func() { delete(r.store.products, id) })
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	return copyProduct(p), nil
}

// GetForUpdate bloquea el producto hasta el fin de la tx. Fuera de tx equivale a GetByID.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil || p == nil || r.tx == nil {
		return p, err
	}
	if err := r.tx.lock(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	r.store.mu.RLock()
	list := make([]*entity.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		list = append(list, copyProduct(p))
	}
	r.store.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}
