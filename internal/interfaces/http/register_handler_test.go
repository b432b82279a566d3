package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pharmacy-register/internal/application/dto"
	"github.com/jhoicas/pharmacy-register/internal/application/register"
	"github.com/jhoicas/pharmacy-register/internal/application/usecase"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/pharmacy-register/internal/interfaces/http"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	morphineID    = "11111111-1111-1111-1111-111111111111"
	paracetamolID = "22222222-2222-2222-2222-222222222222"
)

// buildRegisterApp arma el router completo sobre el store en memoria con el usuario de test y dos productos.
func buildRegisterApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, memory.NewUserRepository(store).Create(ctx, &entity.User{
		ID: testUserID, Name: "Farmacéutica de turno", Role: entity.RolePharmacist, Status: entity.UserStatusActive,
	}))
	products := memory.NewProductRepository(store)
	require.NoError(t, products.Create(ctx, &entity.Product{ID: morphineID, Name: "Morphine 10mg", DrugSchedule: entity.ScheduleOne}))
	require.NoError(t, products.Create(ctx, &entity.Product{ID: paracetamolID, Name: "Paracetamol 500mg", DrugSchedule: entity.ScheduleOTC}))

	txRunner := memory.NewTxRunner(store)
	record := register.NewRecordEntryUseCase(txRunner, register.StrategyIncremental, nil, zerolog.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:   usecase.NewProductUseCase(products),
		RecordEntry: record,
		Query:       register.NewQueryUseCase(memory.NewEntryRepository(store), products),
		SaleHook:    register.NewSaleCompletionUseCase(txRunner, record),
		ReceiptHook: register.NewStockReceiptUseCase(txRunner, record),
		JWTSecret:   testJWTSecret,
	})
	return app
}

// doJSON lanza la petición con el rol indicado y devuelve la respuesta.
func doJSON(t *testing.T, app *fiber.App, method, path, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func at(day, hour int) *time.Time {
	t := time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
	return &t
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests del registro vía HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterHTTP_RecepcionYDispensacion(t *testing.T) {
	app := buildRegisterApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/register/entries", "pharmacist", dto.CreateEntryRequest{
		Date: at(1, 9), ProductID: morphineID, TransactionType: "receipt",
		QuantityReceived: decimal.NewFromInt(100), SupplierRef: "SUP-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	receipt := decode[dto.EntryResponse](t, resp)
	assert.True(t, receipt.RunningBalance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, testUserID, receipt.AuthorizedBy, "authorized_by vacío toma el usuario del token")

	resp = doJSON(t, app, http.MethodPost, "/api/register/entries", "pharmacist", dto.CreateEntryRequest{
		Date: at(2, 9), ProductID: morphineID, TransactionType: "dispensing",
		QuantityDispensed: decimal.NewFromInt(10), PatientName: "Jane Doe", PrescriberName: "Dr. Smith",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	dispensing := decode[dto.EntryResponse](t, resp)
	assert.True(t, dispensing.RunningBalance.Equal(decimal.NewFromInt(90)))

	resp = doJSON(t, app, http.MethodGet, "/api/register/products/"+morphineID+"/balance", "technician", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balance := decode[dto.BalanceResponse](t, resp)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(90)))

	resp = doJSON(t, app, http.MethodGet, "/api/register/counts?type=dispensing", "technician", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.CountResponse](t, resp).Count)
}

func TestRegisterHTTP_ViolacionesDevuelven422(t *testing.T) {
	app := buildRegisterApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/register/entries", "pharmacist", dto.CreateEntryRequest{
		Date: at(1, 9), ProductID: morphineID, TransactionType: "dispensing",
		QuantityDispensed: decimal.NewFromInt(5),
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[dto.ComplianceErrorResponse](t, resp)
	assert.Equal(t, "COMPLIANCE_VIOLATION", body.Code)
	require.Len(t, body.Violations, 2, "faltan paciente y prescriptor")
	assert.Equal(t, "MissingProvenance", body.Violations[0].Kind)
	assert.Equal(t, "patient_name", body.Violations[0].Field)
	assert.Equal(t, "prescriber_name", body.Violations[1].Field)

	resp = doJSON(t, app, http.MethodGet, "/api/register/counts", "admin", nil)
	assert.Equal(t, 0, decode[dto.CountResponse](t, resp).Count, "nada se persiste si la validación falla")
}

func TestRegisterHTTP_ProductoNoControlado(t *testing.T) {
	app := buildRegisterApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/register/entries", "pharmacist", dto.CreateEntryRequest{
		ProductID: paracetamolID, TransactionType: "receipt", QuantityReceived: decimal.NewFromInt(1),
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[dto.ComplianceErrorResponse](t, resp)
	require.Len(t, body.Violations, 1)
	assert.Equal(t, "IneligibleProduct", body.Violations[0].Kind)
}

func TestRegisterHTTP_ProductoInexistente404(t *testing.T) {
	app := buildRegisterApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/register/entries", "pharmacist", dto.CreateEntryRequest{
		ProductID: "99999999-9999-9999-9999-999999999999", TransactionType: "receipt", QuantityReceived: decimal.NewFromInt(1),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterHTTP_TechnicianNoRegistra(t *testing.T) {
	app := buildRegisterApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/register/entries", "technician", dto.CreateEntryRequest{
		ProductID: morphineID, TransactionType: "receipt", QuantityReceived: decimal.NewFromInt(1),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRegisterHTTP_PatchSoloAdminYRecalcula(t *testing.T) {
	app := buildRegisterApp(t)
	for _, d := range []int{1, 2} {
		resp := doJSON(t, app, http.MethodPost, "/api/register/entries", "pharmacist", dto.CreateEntryRequest{
			Date: at(d, 9), ProductID: morphineID, TransactionType: "receipt", QuantityReceived: decimal.NewFromInt(10),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	qty := decimal.NewFromInt(50)
	patch := dto.UpdateEntryRequest{QuantityReceived: &qty}

	resp := doJSON(t, app, http.MethodPatch, "/api/register/entries/1", "pharmacist", patch)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/api/register/entries/1", "admin", patch)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.EntryResponse](t, resp).RunningBalance.Equal(decimal.NewFromInt(50)))

	resp = doJSON(t, app, http.MethodGet, "/api/register/entries/2", "technician", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.EntryResponse](t, resp).RunningBalance.Equal(decimal.NewFromInt(60)), "el asiento posterior se recalcula")

	resp = doJSON(t, app, http.MethodGet, "/api/register/entries/abc", "admin", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/register/entries/999", "admin", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterHTTP_VentaPOSOmiteNoControlados(t *testing.T) {
	app := buildRegisterApp(t)
	resp := doJSON(t, app, http.MethodPost, "/api/register/receipts", "pharmacist", dto.RecordReceiptRequest{
		TransactionType: "receipt", Date: *at(1, 8), SupplierRef: "SUP-1",
		Lines: []dto.ReceiptLineRequest{
			{ProductID: morphineID, Quantity: decimal.NewFromInt(20)},
			{ProductID: paracetamolID, Quantity: decimal.NewFromInt(200)},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, decode[[]dto.EntryResponse](t, resp), 1)

	resp = doJSON(t, app, http.MethodPost, "/api/register/sales", "pharmacist", dto.RecordSaleRequest{
		OrderRef: "SO-42", Date: *at(3, 12), PrescriberName: "Dr. Smith",
		Lines: []dto.SaleLineRequest{
			{ProductID: morphineID, Quantity: decimal.NewFromInt(2)},
			{ProductID: paracetamolID, Quantity: decimal.NewFromInt(5)},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entries := decode[[]dto.EntryResponse](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, register.WalkInPatient, entries[0].PatientName)
	assert.Equal(t, "SO-42", entries[0].SourceOrderRef)
	assert.Equal(t, "POS Sale - Order SO-42", entries[0].Remarks)
	assert.True(t, entries[0].RunningBalance.Equal(decimal.NewFromInt(18)))
}

func TestRegisterHTTP_HistorialYRetornoMensual(t *testing.T) {
	app := buildRegisterApp(t)
	for _, d := range []int{1, 15} {
		resp := doJSON(t, app, http.MethodPost, "/api/register/entries", "pharmacist", dto.CreateEntryRequest{
			Date: at(d, 9), ProductID: morphineID, TransactionType: "receipt", QuantityReceived: decimal.NewFromInt(10),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, app, http.MethodGet,
		"/api/register/products/"+morphineID+"/entries?from=2026-03-10T00:00:00Z&to=2026-03-31T00:00:00Z", "technician", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.EntryResponse](t, resp), 1)

	resp = doJSON(t, app, http.MethodGet, "/api/register/products/"+morphineID+"/entries?from=ayer", "technician", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/register/monthly-return?year=2026&month=3", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ret := decode[dto.MonthlyReturnResponse](t, resp)
	require.Len(t, ret.Products, 1)
	assert.Equal(t, "Morphine 10mg", ret.Products[0].ProductName)
	assert.True(t, ret.Products[0].Received.Equal(decimal.NewFromInt(20)))
	assert.True(t, ret.Products[0].ClosingBalance.Equal(decimal.NewFromInt(20)))

	resp = doJSON(t, app, http.MethodGet, "/api/register/monthly-return?year=2026&month=13", "admin", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterHTTP_RecalcularSinCambios(t *testing.T) {
	app := buildRegisterApp(t)
	resp := doJSON(t, app, http.MethodPost, "/api/register/entries", "pharmacist", dto.CreateEntryRequest{
		ProductID: morphineID, TransactionType: "receipt", QuantityReceived: decimal.NewFromInt(10),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/register/products/"+morphineID+"/recalculate", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[dto.RecalculateResponse](t, resp).Changed)
}

func TestProductsHTTP_CrearYListar(t *testing.T) {
	app := buildRegisterApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/products", "admin", dto.CreateProductRequest{
		Name: "Pethidine 50mg", DrugSchedule: "schedule_2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ProductResponse](t, resp)
	assert.True(t, created.IsControlledSubstance)
	assert.True(t, created.RequiresPrescription)

	resp = doJSON(t, app, http.MethodPost, "/api/products", "admin", dto.CreateProductRequest{Name: "X", DrugSchedule: "schedule_9"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/products/"+created.ID, "technician", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pethidine 50mg", decode[dto.ProductResponse](t, resp).Name)

	resp = doJSON(t, app, http.MethodGet, "/api/products?limit=10", "technician", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.ProductListResponse](t, resp).Items, 3)
}
