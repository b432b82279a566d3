package register

import (
	"fmt"
	"strings"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Validate aplica todas las reglas regulatorias del registro y devuelve todas las violaciones
// encontradas (no se detiene en la primera). product nil equivale a producto no elegible.
func Validate(e *entity.RegisterEntry, product *entity.Product) []domain.Violation {
	var out []domain.Violation
	out = append(out, checkQuantities(e)...)
	out = append(out, checkDispensingProvenance(e)...)
	out = append(out, checkDestructionWitness(e)...)
	out = append(out, checkProductEligibility(product)...)
	return out
}

// QuantityScale decimales que admite el store (NUMERIC(12, 3)). Más decimales se redondearían al persistir.
const QuantityScale = 3

// checkQuantities: el tipo determina cuál cantidad es positiva; la otra debe ser cero.
func checkQuantities(e *entity.RegisterEntry) []domain.Violation {
	var out []domain.Violation
	switch {
	case e.TransactionType.IsInbound():
		out = append(out, checkScale(e.QuantityReceived, "quantity_received")...)
		if !e.QuantityReceived.IsPositive() {
			out = append(out, domain.Violation{
				Kind:    domain.ViolationQuantityMismatch,
				Field:   "quantity_received",
				Message: fmt.Sprintf("la cantidad recibida debe ser positiva en movimientos %s", e.TransactionType),
			})
		}
		if !e.QuantityDispensed.IsZero() {
			out = append(out, domain.Violation{
				Kind:    domain.ViolationQuantityMismatch,
				Field:   "quantity_dispensed",
				Message: fmt.Sprintf("la cantidad dispensada debe ser cero en movimientos %s", e.TransactionType),
			})
		}
	case e.TransactionType.IsOutbound():
		out = append(out, checkScale(e.QuantityDispensed, "quantity_dispensed")...)
		if !e.QuantityDispensed.IsPositive() {
			out = append(out, domain.Violation{
				Kind:    domain.ViolationQuantityMismatch,
				Field:   "quantity_dispensed",
				Message: fmt.Sprintf("la cantidad dispensada debe ser positiva en movimientos %s", e.TransactionType),
			})
		}
		if !e.QuantityReceived.IsZero() {
			out = append(out, domain.Violation{
				Kind:    domain.ViolationQuantityMismatch,
				Field:   "quantity_received",
				Message: fmt.Sprintf("la cantidad recibida debe ser cero en movimientos %s", e.TransactionType),
			})
		}
	default:
		out = append(out, domain.Violation{
			Kind:    domain.ViolationUnknownTransactionType,
			Field:   "transaction_type",
			Message: fmt.Sprintf("tipo de movimiento desconocido %q", e.TransactionType),
		})
	}
	return out
}

func checkScale(q decimal.Decimal, field string) []domain.Violation {
	if q.Equal(q.Truncate(QuantityScale)) {
		return nil
	}
	return []domain.Violation{{
		Kind:    domain.ViolationQuantityMismatch,
		Field:   field,
		Message: fmt.Sprintf("la cantidad admite como máximo %d decimales", QuantityScale),
	}}
}

func checkDispensingProvenance(e *entity.RegisterEntry) []domain.Violation {
	if e.TransactionType != entity.TransactionDispensing {
		return nil
	}
	var out []domain.Violation
	if strings.TrimSpace(e.PatientName) == "" {
		out = append(out, domain.Violation{
			Kind:    domain.ViolationMissingProvenance,
			Field:   "patient_name",
			Message: "el nombre del paciente es obligatorio en dispensaciones",
		})
	}
	if strings.TrimSpace(e.PrescriberName) == "" {
		out = append(out, domain.Violation{
			Kind:    domain.ViolationMissingProvenance,
			Field:   "prescriber_name",
			Message: "el nombre del prescriptor es obligatorio en dispensaciones",
		})
	}
	return out
}

func checkDestructionWitness(e *entity.RegisterEntry) []domain.Violation {
	if e.TransactionType != entity.TransactionDestruction {
		return nil
	}
	if e.WitnessedBy == "" {
		return []domain.Violation{{
			Kind:    domain.ViolationMissingWitness,
			Field:   "witnessed_by",
			Message: "la destrucción debe ser atestiguada por una segunda persona",
		}}
	}
	if e.WitnessedBy == e.AuthorizedBy {
		return []domain.Violation{{
			Kind:    domain.ViolationSelfWitnessed,
			Field:   "witnessed_by",
			Message: "el testigo debe ser distinto de quien registra la destrucción",
		}}
	}
	return nil
}

func checkProductEligibility(product *entity.Product) []domain.Violation {
	if product != nil && product.IsControlledSubstance() {
		return nil
	}
	return []domain.Violation{{
		Kind:    domain.ViolationIneligibleProduct,
		Field:   "product_id",
		Message: "el producto no está clasificado como sustancia controlada",
	}}
}
