package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// ErrComplianceViolation agrupa las violaciones regulatorias de un asiento del registro.
	ErrComplianceViolation = errors.New("violación de cumplimiento en el registro de controlados")
	// ErrRecalculationInconsistency indica corrupción del registro o un bug de escritura concurrente.
	ErrRecalculationInconsistency = errors.New("saldo corrido inconsistente")
)

// ViolationKind identifica la regla regulatoria violada.
type ViolationKind string

const (
	ViolationQuantityMismatch       ViolationKind = "QuantityMismatch"
	ViolationMissingProvenance      ViolationKind = "MissingProvenance"
	ViolationMissingWitness         ViolationKind = "MissingWitness"
	ViolationSelfWitnessed          ViolationKind = "SelfWitnessed"
	ViolationIneligibleProduct      ViolationKind = "IneligibleProduct"
	ViolationUnknownTransactionType ViolationKind = "UnknownTransactionType"
)

// Violation describe una regla incumplida y el campo afectado.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	Field   string        `json:"field"`
	Message string        `json:"message"`
}

// ComplianceError lista todas las violaciones de un asiento (no falla en la primera).
type ComplianceError struct {
	Violations []Violation
}

func (e *ComplianceError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s(%s)", v.Kind, v.Field))
	}
	return fmt.Sprintf("%s: %s", ErrComplianceViolation.Error(), strings.Join(parts, ", "))
}

func (e *ComplianceError) Unwrap() error { return ErrComplianceViolation }

// Has indica si el error contiene una violación del tipo dado.
func (e *ComplianceError) Has(kind ViolationKind) bool {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// NotFoundError referencia (producto, usuario) que no resuelve en su store.
type NotFoundError struct {
	Resource string // product, user
	Field    string // product_id, authorized_by, witnessed_by
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado (%s)", e.Resource, e.ID, e.Field)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// RecalculationInconsistencyError se produce cuando la verificación posterior al recálculo falla.
// Es fatal: la transacción se revierte y no se reintenta.
type RecalculationInconsistencyError struct {
	ProductID string
	EntryID   int64
	Expected  string
	Stored    string
}

func (e *RecalculationInconsistencyError) Error() string {
	return fmt.Sprintf("saldo inconsistente en producto %s, asiento %d: esperado %s, almacenado %s",
		e.ProductID, e.EntryID, e.Expected, e.Stored)
}

func (e *RecalculationInconsistencyError) Unwrap() error { return ErrRecalculationInconsistency }
