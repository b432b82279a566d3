package register

import (
	"sort"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SortEntries ordena en el orden canónico (fecha, id) usado por toda la aritmética de saldos.
func SortEntries(entries []*entity.RegisterEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Before(entries[j]) })
}

// Recalculate recorre una vez la secuencia ordenada de un producto, asigna el saldo corrido
// a cada asiento y devuelve solo los asientos cuyo saldo almacenado cambió.
// Sobre una secuencia ya consistente no devuelve cambios.
func Recalculate(entries []*entity.RegisterEntry) []entity.BalanceChange {
	var changes []entity.BalanceChange
	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.Delta())
		if !e.RunningBalance.Equal(balance) {
			e.RunningBalance = balance
			changes = append(changes, entity.BalanceChange{EntryID: e.ID, RunningBalance: balance})
		}
	}
	return changes
}

// ShiftBalances suma delta al saldo de cada asiento (camino incremental para inserciones retroactivas).
func ShiftBalances(entries []*entity.RegisterEntry, delta decimal.Decimal) []entity.BalanceChange {
	if delta.IsZero() {
		return nil
	}
	changes := make([]entity.BalanceChange, 0, len(entries))
	for _, e := range entries {
		e.RunningBalance = e.RunningBalance.Add(delta)
		changes = append(changes, entity.BalanceChange{EntryID: e.ID, RunningBalance: e.RunningBalance})
	}
	return changes
}

// Verify comprueba que cada saldo almacenado sea opening + suma de deltas hasta ese asiento.
// entries debe estar en orden canónico; opening es el saldo anterior al primer asiento.
func Verify(productID string, opening decimal.Decimal, entries []*entity.RegisterEntry) error {
	balance := opening
	for _, e := range entries {
		balance = balance.Add(e.Delta())
		if !e.RunningBalance.Equal(balance) {
			return &domain.RecalculationInconsistencyError{
				ProductID: productID,
				EntryID:   e.ID,
				Expected:  balance.String(),
				Stored:    e.RunningBalance.String(),
			}
		}
	}
	return nil
}
