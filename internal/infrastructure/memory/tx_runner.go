package memory

import (
	"context"

	"github.com/jhoicas/pharmacy-register/internal/application/register"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
)

var _ register.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción en memoria.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repos atados a la tx. Si fn falla (o entra en pánico) se revierte todo lo escrito.
func (r *TxRunner) Run(ctx context.Context, fn func(
	entryRepo repository.RegisterEntryRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(r.store)
	committed := false
	defer func() {
		if !committed {
			t.rollback()
		}
	}()

	if err := fn(newEntryRepo(r.store, t), newProductRepo(r.store, t), newUserRepo(r.store, t)); err != nil {
		return err
	}
	committed = true
	t.commit()
	return nil
}
