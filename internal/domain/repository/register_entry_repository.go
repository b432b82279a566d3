package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
)

// RegisterEntryRepository define el puerto de persistencia para asientos del registro de controlados.
// Los listados devuelven orden ascendente (fecha, id); los rangos from/to son inclusivos y opcionales.
type RegisterEntryRepository interface {
	Create(ctx context.Context, entry *entity.RegisterEntry) error
	GetByID(ctx context.Context, id int64) (*entity.RegisterEntry, error)
	Update(ctx context.Context, entry *entity.RegisterEntry) error
	// UpdateBalances escribe en lote los saldos corridos recalculados (misma transacción del caller).
	UpdateBalances(ctx context.Context, changes []entity.BalanceChange) error
	ListByProduct(ctx context.Context, productID string, from, to *time.Time) ([]*entity.RegisterEntry, error)
	// LastByProduct devuelve el último asiento en orden (fecha, id), o nil si no hay.
	LastByProduct(ctx context.Context, productID string) (*entity.RegisterEntry, error)
	// LastAtOrBefore devuelve el último asiento (fecha, id) con fecha <= t, o nil.
	LastAtOrBefore(ctx context.Context, productID string, t time.Time) (*entity.RegisterEntry, error)
	CountByType(ctx context.Context, txType *entity.TransactionType, from, to *time.Time) (int, error)
	// ListProductIDs productos con al menos un asiento, ordenados por ID.
	ListProductIDs(ctx context.Context) ([]string, error)
}
