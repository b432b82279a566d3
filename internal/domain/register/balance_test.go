package register

import (
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

func entry(id int64, at time.Time, txType entity.TransactionType, qty int64) *entity.RegisterEntry {
	e := &entity.RegisterEntry{ID: id, Date: at, ProductID: "p1", TransactionType: txType}
	if txType.IsInbound() {
		e.QuantityReceived = decimal.NewFromInt(qty)
	} else {
		e.QuantityDispensed = decimal.NewFromInt(qty)
	}
	return e
}

func balances(entries []*entity.RegisterEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.RunningBalance.String())
	}
	return out
}

func TestSortEntries_FechaLuegoID(t *testing.T) {
	a := entry(3, t0, entity.TransactionReceipt, 1)
	b := entry(1, t0.Add(time.Hour), entity.TransactionReceipt, 1)
	c := entry(2, t0, entity.TransactionReceipt, 1)
	list := []*entity.RegisterEntry{b, a, c}
	SortEntries(list)
	assert.Equal(t, []int64{2, 3, 1}, []int64{list[0].ID, list[1].ID, list[2].ID})
}

func TestRecalculate_InsercionRetroactiva(t *testing.T) {
	// receipt 500 en T0, dispensación 30 en T1, luego receipt 100 anterior a T0
	list := []*entity.RegisterEntry{
		entry(1, t0, entity.TransactionReceipt, 500),
		entry(2, t0.Add(time.Hour), entity.TransactionDispensing, 30),
	}
	Recalculate(list)
	assert.Equal(t, []string{"500", "470"}, balances(list))

	list = append(list, entry(3, t0.Add(-time.Hour), entity.TransactionReceipt, 100))
	SortEntries(list)
	changes := Recalculate(list)
	assert.Equal(t, []string{"100", "600", "570"}, balances(list))
	assert.Len(t, changes, 3)
}

func TestRecalculate_Idempotente(t *testing.T) {
	list := []*entity.RegisterEntry{
		entry(1, t0, entity.TransactionReceipt, 10),
		entry(2, t0, entity.TransactionDestruction, 4),
		entry(3, t0.Add(time.Minute), entity.TransactionReturn, 1),
	}
	require.Len(t, Recalculate(list), 3)
	assert.Empty(t, Recalculate(list), "una segunda pasada no produce cambios")
	assert.Equal(t, []string{"10", "6", "7"}, balances(list))
}

func TestRecalculate_SaldoNegativoPermitido(t *testing.T) {
	list := []*entity.RegisterEntry{entry(1, t0, entity.TransactionDispensing, 3)}
	Recalculate(list)
	assert.Equal(t, "-3", list[0].RunningBalance.String())
}

func TestShiftBalances(t *testing.T) {
	list := []*entity.RegisterEntry{
		{ID: 1, RunningBalance: decimal.NewFromInt(10)},
		{ID: 2, RunningBalance: decimal.NewFromInt(7)},
	}
	changes := ShiftBalances(list, decimal.NewFromInt(-2))
	assert.Equal(t, []string{"8", "5"}, balances(list))
	require.Len(t, changes, 2)
	assert.Equal(t, int64(2), changes[1].EntryID)

	assert.Nil(t, ShiftBalances(list, decimal.Zero))
}

func TestVerify(t *testing.T) {
	list := []*entity.RegisterEntry{
		entry(5, t0, entity.TransactionReceipt, 10),
		entry(6, t0.Add(time.Hour), entity.TransactionDispensing, 4),
	}
	list[0].RunningBalance = decimal.NewFromInt(30)
	list[1].RunningBalance = decimal.NewFromInt(26)
	require.NoError(t, Verify("p1", decimal.NewFromInt(20), list))

	list[1].RunningBalance = decimal.NewFromInt(25)
	err := Verify("p1", decimal.NewFromInt(20), list)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRecalculationInconsistency))
	var ie *domain.RecalculationInconsistencyError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, int64(6), ie.EntryID)
	assert.Equal(t, "26", ie.Expected)
	assert.Equal(t, "25", ie.Stored)
}
