package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de movimiento del registro de sustancias controladas.
type TransactionType string

// Tipos de movimiento del registro (requisito PPB).
const (
	TransactionReceipt     TransactionType = "receipt"      // compra / recepción
	TransactionDispensing  TransactionType = "dispensing"   // dispensación a paciente
	TransactionReturn      TransactionType = "return"       // devolución de paciente
	TransactionDestruction TransactionType = "destruction"  // destrucción con testigo
	TransactionAdjustment  TransactionType = "adjustment"   // ajuste de stock
	TransactionTransferIn  TransactionType = "transfer_in"  // traslado entrante
	TransactionTransferOut TransactionType = "transfer_out" // traslado saliente
)

// TransactionTypes lista todos los tipos válidos en orden de presentación.
var TransactionTypes = []TransactionType{
	TransactionReceipt, TransactionDispensing, TransactionReturn, TransactionDestruction,
	TransactionAdjustment, TransactionTransferIn, TransactionTransferOut,
}

// IsValid indica si el tipo pertenece al catálogo.
func (t TransactionType) IsValid() bool {
	return t.IsInbound() || t.IsOutbound()
}

// IsInbound: el movimiento llena QuantityReceived.
func (t TransactionType) IsInbound() bool {
	switch t {
	case TransactionReceipt, TransactionReturn, TransactionTransferIn, TransactionAdjustment:
		return true
	}
	return false
}

// IsOutbound: el movimiento llena QuantityDispensed.
func (t TransactionType) IsOutbound() bool {
	switch t {
	case TransactionDispensing, TransactionDestruction, TransactionTransferOut:
		return true
	}
	return false
}

// RegisterEntry representa un asiento del registro de sustancias controladas.
// Una vez persistido no se elimina (auditoría); RunningBalance es derivado y lo mantiene el recalculador.
type RegisterEntry struct {
	ID                int64 // monotónico; desempata asientos con la misma fecha
	Date              time.Time
	ProductID         string
	TransactionType   TransactionType
	QuantityReceived  decimal.Decimal
	QuantityDispensed decimal.Decimal
	RunningBalance    decimal.Decimal

	// Procedencia de dispensación (obligatoria en dispensing)
	PrescriptionRef   string
	PatientName       string
	PatientIDNumber   string // cédula o pasaporte
	PrescriberName    string
	PrescriberLicense string

	// Procedencia de recepción (informativa)
	SupplierRef      string
	PurchaseOrderRef string
	InvoiceRef       string
	LotRef           string

	AuthorizedBy string
	WitnessedBy  string
	Remarks      string

	// Referencias débiles al documento origen (solo búsqueda, sin propiedad)
	SourceOrderRef    string
	SourceTransferRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Delta movimiento neto firmado del asiento.
func (e *RegisterEntry) Delta() decimal.Decimal {
	return e.QuantityReceived.Sub(e.QuantityDispensed)
}

// Before indica si e precede a o en el orden canónico (fecha, id).
func (e *RegisterEntry) Before(o *RegisterEntry) bool {
	if !e.Date.Equal(o.Date) {
		return e.Date.Before(o.Date)
	}
	return e.ID < o.ID
}

// EntryPatch actualización parcial; nil = sin cambio. El ID no es modificable.
type EntryPatch struct {
	Date              *time.Time
	ProductID         *string
	TransactionType   *TransactionType
	QuantityReceived  *decimal.Decimal
	QuantityDispensed *decimal.Decimal
	PrescriptionRef   *string
	PatientName       *string
	PatientIDNumber   *string
	PrescriberName    *string
	PrescriberLicense *string
	SupplierRef       *string
	PurchaseOrderRef  *string
	InvoiceRef        *string
	LotRef            *string
	AuthorizedBy      *string
	WitnessedBy       *string
	Remarks           *string
}

// AffectsBalance indica si el patch toca campos que obligan a recalcular el saldo del producto.
func (p EntryPatch) AffectsBalance() bool {
	return p.Date != nil || p.ProductID != nil || p.QuantityReceived != nil || p.QuantityDispensed != nil
}

// Apply aplica el patch sobre una copia del asiento y la devuelve.
func (p EntryPatch) Apply(e RegisterEntry) RegisterEntry {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.TransactionType != nil {
		e.TransactionType = *p.TransactionType
	}
	if p.QuantityReceived != nil {
		e.QuantityReceived = *p.QuantityReceived
	}
	if p.QuantityDispensed != nil {
		e.QuantityDispensed = *p.QuantityDispensed
	}
	setStr(&e.ProductID, p.ProductID)
	setStr(&e.PrescriptionRef, p.PrescriptionRef)
	setStr(&e.PatientName, p.PatientName)
	setStr(&e.PatientIDNumber, p.PatientIDNumber)
	setStr(&e.PrescriberName, p.PrescriberName)
	setStr(&e.PrescriberLicense, p.PrescriberLicense)
	setStr(&e.SupplierRef, p.SupplierRef)
	setStr(&e.PurchaseOrderRef, p.PurchaseOrderRef)
	setStr(&e.InvoiceRef, p.InvoiceRef)
	setStr(&e.LotRef, p.LotRef)
	setStr(&e.AuthorizedBy, p.AuthorizedBy)
	setStr(&e.WitnessedBy, p.WitnessedBy)
	setStr(&e.Remarks, p.Remarks)
	return e
}

// BalanceChange nuevo saldo almacenado para un asiento (escritura en lote del recalculador).
type BalanceChange struct {
	EntryID        int64
	RunningBalance decimal.Decimal
}
