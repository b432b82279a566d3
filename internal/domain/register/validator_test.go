package register

import (
	"testing"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var morphine = &entity.Product{ID: "p1", Name: "Morphine 10mg", DrugSchedule: entity.ScheduleOne}

func kinds(vs []domain.Violation) []domain.ViolationKind {
	out := make([]domain.ViolationKind, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Kind)
	}
	return out
}

func TestValidate_ReceiptValido(t *testing.T) {
	e := &entity.RegisterEntry{
		TransactionType:  entity.TransactionReceipt,
		QuantityReceived: decimal.NewFromInt(500),
		AuthorizedBy:     "u1",
	}
	assert.Empty(t, Validate(e, morphine))
}

func TestValidate_CantidadesPorTipo(t *testing.T) {
	cases := []struct {
		name      string
		txType    entity.TransactionType
		received  int64
		dispensed int64
		fields    []string
	}{
		{"receipt con ambas cantidades", entity.TransactionReceipt, 50, 10, []string{"quantity_dispensed"}},
		{"receipt sin cantidad", entity.TransactionReceipt, 0, 0, []string{"quantity_received"}},
		{"adjustment es entrada", entity.TransactionAdjustment, 0, 3, []string{"quantity_received", "quantity_dispensed"}},
		{"transfer_out con recibido", entity.TransactionTransferOut, 2, 2, []string{"quantity_received"}},
		{"return válido", entity.TransactionReturn, 1, 0, nil},
		{"transfer_in válido", entity.TransactionTransferIn, 4, 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := &entity.RegisterEntry{
				TransactionType:   tc.txType,
				QuantityReceived:  decimal.NewFromInt(tc.received),
				QuantityDispensed: decimal.NewFromInt(tc.dispensed),
				AuthorizedBy:      "u1",
			}
			vs := Validate(e, morphine)
			var fields []string
			for _, v := range vs {
				assert.Equal(t, domain.ViolationQuantityMismatch, v.Kind)
				fields = append(fields, v.Field)
			}
			assert.Equal(t, tc.fields, fields)
		})
	}
}

func TestValidate_CantidadNegativa(t *testing.T) {
	e := &entity.RegisterEntry{
		TransactionType:  entity.TransactionReceipt,
		QuantityReceived: decimal.NewFromInt(-5),
		AuthorizedBy:     "u1",
	}
	assert.Equal(t, []domain.ViolationKind{domain.ViolationQuantityMismatch}, kinds(Validate(e, morphine)))
}

func TestValidate_DispensacionSinProcedencia(t *testing.T) {
	e := &entity.RegisterEntry{
		TransactionType:   entity.TransactionDispensing,
		QuantityDispensed: decimal.NewFromInt(30),
		PatientName:       "   ",
		AuthorizedBy:      "u1",
	}
	vs := Validate(e, morphine)
	require.Len(t, vs, 2)
	assert.Equal(t, "patient_name", vs[0].Field)
	assert.Equal(t, "prescriber_name", vs[1].Field)
	assert.Equal(t, domain.ViolationMissingProvenance, vs[0].Kind)

	e.PatientName = "Jane Doe"
	e.PrescriberName = "Dr. Smith"
	assert.Empty(t, Validate(e, morphine))
}

func TestValidate_DestruccionTestigo(t *testing.T) {
	e := &entity.RegisterEntry{
		TransactionType:   entity.TransactionDestruction,
		QuantityDispensed: decimal.NewFromInt(5),
		AuthorizedBy:      "u1",
	}
	assert.Equal(t, []domain.ViolationKind{domain.ViolationMissingWitness}, kinds(Validate(e, morphine)))

	e.WitnessedBy = "u1"
	assert.Equal(t, []domain.ViolationKind{domain.ViolationSelfWitnessed}, kinds(Validate(e, morphine)))

	e.WitnessedBy = "u2"
	assert.Empty(t, Validate(e, morphine))
}

func TestValidate_ProductoNoElegible(t *testing.T) {
	e := &entity.RegisterEntry{
		TransactionType:  entity.TransactionReceipt,
		QuantityReceived: decimal.NewFromInt(1),
		AuthorizedBy:     "u1",
	}
	otc := &entity.Product{ID: "p2", DrugSchedule: entity.ScheduleOTC}
	assert.Equal(t, []domain.ViolationKind{domain.ViolationIneligibleProduct}, kinds(Validate(e, otc)))
	assert.Equal(t, []domain.ViolationKind{domain.ViolationIneligibleProduct}, kinds(Validate(e, nil)))
}

func TestValidate_AcumulaTodasLasViolaciones(t *testing.T) {
	e := &entity.RegisterEntry{
		TransactionType:   entity.TransactionDispensing,
		QuantityReceived:  decimal.NewFromInt(2),
		QuantityDispensed: decimal.NewFromInt(1),
		AuthorizedBy:      "u1",
	}
	otc := &entity.Product{ID: "p2", DrugSchedule: entity.SchedulePharmacy}
	assert.Equal(t, []domain.ViolationKind{
		domain.ViolationQuantityMismatch,
		domain.ViolationMissingProvenance,
		domain.ViolationMissingProvenance,
		domain.ViolationIneligibleProduct,
	}, kinds(Validate(e, otc)))
}

func TestValidate_TipoDesconocido(t *testing.T) {
	e := &entity.RegisterEntry{TransactionType: "theft", QuantityDispensed: decimal.NewFromInt(1), AuthorizedBy: "u1"}
	vs := Validate(e, morphine)
	require.Len(t, vs, 1)
	assert.Equal(t, domain.ViolationUnknownTransactionType, vs[0].Kind)
	assert.Equal(t, "transaction_type", vs[0].Field)
}

func TestValidate_CantidadConMasDeTresDecimales(t *testing.T) {
	cases := []struct {
		name   string
		txType entity.TransactionType
		qty    string
		fields []string
	}{
		{"receipt con cuatro decimales", entity.TransactionReceipt, "0.0004", []string{"quantity_received"}},
		{"dispensing con cuatro decimales", entity.TransactionDispensing, "1.2345", []string{"quantity_dispensed"}},
		{"receipt con tres decimales", entity.TransactionReceipt, "1.125", nil},
		{"destruction con tres decimales", entity.TransactionDestruction, "0.001", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := decimal.RequireFromString(tc.qty)
			e := &entity.RegisterEntry{
				TransactionType: tc.txType,
				AuthorizedBy:    "u1",
				WitnessedBy:     "u2",
				PatientName:     "Ana Pérez",
				PrescriberName:  "Dr. Gómez",
				PrescriptionRef: "RX-1",
			}
			if tc.txType.IsInbound() {
				e.QuantityReceived = q
			} else {
				e.QuantityDispensed = q
			}
			var fields []string
			for _, v := range Validate(e, morphine) {
				require.Equal(t, domain.ViolationQuantityMismatch, v.Kind, v.Message)
				fields = append(fields, v.Field)
			}
			assert.Equal(t, tc.fields, fields)
		})
	}
}
