package register

import (
	"context"
	"time"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza la atomicidad validar → persistir → recalcular del registro.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		entryRepo repository.RegisterEntryRepository,
		productRepo repository.ProductRepository,
		userRepo repository.UserRepository,
	) error) error
}

// Metrics puerto de instrumentación del registro (implementado con Prometheus en infraestructura).
type Metrics interface {
	EntryRecorded(txType entity.TransactionType)
	ViolationsRejected(violations []domain.Violation)
	Recalculated(strategy Strategy, elapsed time.Duration)
	Inconsistency()
}

// NopMetrics descarta todas las métricas (tests, herramientas).
type NopMetrics struct{}

func (NopMetrics) EntryRecorded(entity.TransactionType) {}
func (NopMetrics) ViolationsRejected([]domain.Violation) {}
func (NopMetrics) Recalculated(Strategy, time.Duration) {}
func (NopMetrics) Inconsistency() {}
