package usecase_test

import (
	"context"
	"testing"

	"github.com/jhoicas/pharmacy-register/internal/application/dto"
	"github.com/jhoicas/pharmacy-register/internal/application/usecase"
	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductUseCase_Create(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.NewProductRepository(memory.NewStore()))
	ctx := context.Background()

	out, err := uc.Create(ctx, dto.CreateProductRequest{Name: "  Morphine 10mg ", DrugSchedule: entity.ScheduleOne})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "Morphine 10mg", out.Name)
	assert.True(t, out.IsControlledSubstance)
	assert.True(t, out.RequiresPrescription)

	otc, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Paracetamol", DrugSchedule: entity.ScheduleOTC})
	require.NoError(t, err)
	assert.False(t, otc.IsControlledSubstance)
	assert.False(t, otc.RequiresPrescription)

	got, err := uc.GetByID(ctx, out.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.ScheduleOne, got.DrugSchedule)

	missing, err := uc.GetByID(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductUseCase_CreateInvalido(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.NewProductRepository(memory.NewStore()))
	tests := []struct {
		name string
		in   dto.CreateProductRequest
	}{
		{"sin nombre", dto.CreateProductRequest{Name: " ", DrugSchedule: entity.ScheduleTwo}},
		{"schedule desconocido", dto.CreateProductRequest{Name: "X", DrugSchedule: "schedule_3"}},
		{"schedule vacío", dto.CreateProductRequest{Name: "X"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestProductUseCase_ListPaginaPorDefecto(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.NewProductRepository(memory.NewStore()))
	ctx := context.Background()
	for _, name := range []string{"C", "A", "B"} {
		_, err := uc.Create(ctx, dto.CreateProductRequest{Name: name, DrugSchedule: entity.SchedulePharmacy})
		require.NoError(t, err)
	}

	out, err := uc.List(ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 20, out.Page.Limit)
	require.Len(t, out.Items, 3)
	assert.Equal(t, "A", out.Items[0].Name)

	out, err = uc.List(ctx, dto.PageRequest{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "C", out.Items[0].Name)
}

func TestProductUseCase_ListLimitaMaximo(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.NewProductRepository(memory.NewStore()))
	out, err := uc.List(context.Background(), dto.PageRequest{Limit: 5000, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, dto.MaxPageLimit, out.Page.Limit)
	assert.Zero(t, out.Page.Offset)
	assert.Empty(t, out.Items)
}
