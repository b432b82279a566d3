package repository

import (
	"context"

	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
)

// ProductRepository define el puerto del catálogo de medicamentos (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// GetForUpdate bloquea el producto hasta el fin de la transacción (SELECT FOR UPDATE).
	// Serializa a los escritores del registro sobre el mismo producto.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
}
