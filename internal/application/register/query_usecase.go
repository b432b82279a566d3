package register

import (
	"context"
	"time"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// QueryUseCase consultas de solo lectura sobre el registro (saldos, conteos, exportación PPB).
type QueryUseCase struct {
	entryRepo   repository.RegisterEntryRepository
	productRepo repository.ProductRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(entryRepo repository.RegisterEntryRepository, productRepo repository.ProductRepository) *QueryUseCase {
	return &QueryUseCase{entryRepo: entryRepo, productRepo: productRepo}
}

// GetEntry obtiene un asiento por ID (nil si no existe).
func (uc *QueryUseCase) GetEntry(ctx context.Context, id int64) (*entity.RegisterEntry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// CurrentBalance saldo del asiento más reciente del producto, o cero si no tiene asientos.
func (uc *QueryUseCase) CurrentBalance(ctx context.Context, productID string) (decimal.Decimal, error) {
	last, err := uc.entryRepo.LastByProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if last == nil {
		return decimal.Zero, nil
	}
	return last.RunningBalance, nil
}

// CountByType cuenta asientos de un tipo (nil = todos) en un rango opcional.
func (uc *QueryUseCase) CountByType(ctx context.Context, txType *entity.TransactionType, from, to *time.Time) (int, error) {
	if txType != nil && !txType.IsValid() {
		return 0, domain.ErrInvalidInput
	}
	if from != nil && to != nil && to.Before(*from) {
		return 0, domain.ErrInvalidInput
	}
	return uc.entryRepo.CountByType(ctx, txType, from, to)
}

// EntriesForPeriod asientos del producto en [start, end], orden (fecha, id).
func (uc *QueryUseCase) EntriesForPeriod(ctx context.Context, productID string, start, end time.Time) ([]*entity.RegisterEntry, error) {
	return uc.History(ctx, productID, &start, &end)
}

// History asientos del producto con límites opcionales (nil = abierto).
func (uc *QueryUseCase) History(ctx context.Context, productID string, from, to *time.Time) ([]*entity.RegisterEntry, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, domain.ErrInvalidInput
	}
	return uc.entryRepo.ListByProduct(ctx, productID, from, to)
}

// ProductReturn fila del retorno mensual PPB para un producto controlado.
type ProductReturn struct {
	ProductID      string
	ProductName    string
	DrugSchedule   string
	OpeningBalance decimal.Decimal
	Received       decimal.Decimal
	Dispensed      decimal.Decimal
	ClosingBalance decimal.Decimal
	Entries        int
}

// MonthlyReturn agrega el registro por producto para un mes calendario (UTC).
// Incluye productos con movimientos en el mes o con saldo de apertura distinto de cero.
func (uc *QueryUseCase) MonthlyReturn(ctx context.Context, year int, month time.Month) ([]ProductReturn, error) {
	if month < time.January || month > time.December || year < 1 {
		return nil, domain.ErrInvalidInput
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	beforeStart := start.Add(-time.Nanosecond)

	productIDs, err := uc.entryRepo.ListProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductReturn, 0, len(productIDs))
	for _, pid := range productIDs {
		row := ProductReturn{ProductID: pid, OpeningBalance: decimal.Zero, Received: decimal.Zero, Dispensed: decimal.Zero}
		prev, err := uc.entryRepo.LastAtOrBefore(ctx, pid, beforeStart)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			row.OpeningBalance = prev.RunningBalance
		}
		entries, err := uc.entryRepo.ListByProduct(ctx, pid, &start, &end)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 && row.OpeningBalance.IsZero() {
			continue
		}
		row.ClosingBalance = row.OpeningBalance
		for _, e := range entries {
			row.Received = row.Received.Add(e.QuantityReceived)
			row.Dispensed = row.Dispensed.Add(e.QuantityDispensed)
			row.ClosingBalance = e.RunningBalance
		}
		row.Entries = len(entries)
		p, err := uc.productRepo.GetByID(ctx, pid)
		if err != nil {
			return nil, err
		}
		if p != nil {
			row.ProductName = p.Name
			row.DrugSchedule = p.DrugSchedule
		}
		out = append(out, row)
	}
	return out, nil
}
