package memory

import (
	"context"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria.
type UserRepo struct {
	store *Store
	tx    *tx
}

// NewUserRepository repositorio fuera de transacción.
func NewUserRepository(store *Store) *UserRepo {
	return newUserRepo(store, nil)
}

func newUserRepo(store *Store, t *tx) *UserRepo {
	return &UserRepo{store: store, tx: t}
}

func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; ok {
		return domain.ErrDuplicate
	}
	r.store.users[user.ID] = copyUser(user)
	id := user.ID
	r.tx.record(func() { delete(r.store.users, id) })
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}
