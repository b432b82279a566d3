package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateEntryRequest body para POST /api/register/entries.
// date vacío = ahora; authorized_by vacío = usuario del token.
type CreateEntryRequest struct {
	Date              *time.Time      `json:"date,omitempty"`
	ProductID         string          `json:"product_id"`
	TransactionType   string          `json:"transaction_type"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	QuantityDispensed decimal.Decimal `json:"quantity_dispensed"`
	PrescriptionRef   string          `json:"prescription_ref,omitempty"`
	PatientName       string          `json:"patient_name,omitempty"`
	PatientIDNumber   string          `json:"patient_id_number,omitempty"`
	PrescriberName    string          `json:"prescriber_name,omitempty"`
	PrescriberLicense string          `json:"prescriber_license,omitempty"`
	SupplierRef       string          `json:"supplier_ref,omitempty"`
	PurchaseOrderRef  string          `json:"purchase_order_ref,omitempty"`
	InvoiceRef        string          `json:"invoice_ref,omitempty"`
	LotRef            string          `json:"lot_ref,omitempty"`
	AuthorizedBy      string          `json:"authorized_by,omitempty"`
	WitnessedBy       string          `json:"witnessed_by,omitempty"`
	Remarks           string          `json:"remarks,omitempty"`
	SourceOrderRef    string          `json:"source_order_ref,omitempty"`
	SourceTransferRef string          `json:"source_transfer_ref,omitempty"`
}

// UpdateEntryRequest body para PATCH /api/register/entries/:id (campos ausentes no cambian).
type UpdateEntryRequest struct {
	Date              *time.Time       `json:"date,omitempty"`
	ProductID         *string          `json:"product_id,omitempty"`
	TransactionType   *string          `json:"transaction_type,omitempty"`
	QuantityReceived  *decimal.Decimal `json:"quantity_received,omitempty"`
	QuantityDispensed *decimal.Decimal `json:"quantity_dispensed,omitempty"`
	PrescriptionRef   *string          `json:"prescription_ref,omitempty"`
	PatientName       *string          `json:"patient_name,omitempty"`
	PatientIDNumber   *string          `json:"patient_id_number,omitempty"`
	PrescriberName    *string          `json:"prescriber_name,omitempty"`
	PrescriberLicense *string          `json:"prescriber_license,omitempty"`
	SupplierRef       *string          `json:"supplier_ref,omitempty"`
	PurchaseOrderRef  *string          `json:"purchase_order_ref,omitempty"`
	InvoiceRef        *string          `json:"invoice_ref,omitempty"`
	LotRef            *string          `json:"lot_ref,omitempty"`
	AuthorizedBy      *string          `json:"authorized_by,omitempty"`
	WitnessedBy       *string          `json:"witnessed_by,omitempty"`
	Remarks           *string          `json:"remarks,omitempty"`
}

// EntryResponse salida de un asiento del registro.
type EntryResponse struct {
	ID                int64           `json:"id"`
	Date              time.Time       `json:"date"`
	ProductID         string          `json:"product_id"`
	TransactionType   string          `json:"transaction_type"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	QuantityDispensed decimal.Decimal `json:"quantity_dispensed"`
	RunningBalance    decimal.Decimal `json:"running_balance"`
	PrescriptionRef   string          `json:"prescription_ref,omitempty"`
	PatientName       string          `json:"patient_name,omitempty"`
	PatientIDNumber   string          `json:"patient_id_number,omitempty"`
	PrescriberName    string          `json:"prescriber_name,omitempty"`
	PrescriberLicense string          `json:"prescriber_license,omitempty"`
	SupplierRef       string          `json:"supplier_ref,omitempty"`
	PurchaseOrderRef  string          `json:"purchase_order_ref,omitempty"`
	InvoiceRef        string          `json:"invoice_ref,omitempty"`
	LotRef            string          `json:"lot_ref,omitempty"`
	AuthorizedBy      string          `json:"authorized_by"`
	WitnessedBy       string          `json:"witnessed_by,omitempty"`
	Remarks           string          `json:"remarks,omitempty"`
	SourceOrderRef    string          `json:"source_order_ref,omitempty"`
	SourceTransferRef string          `json:"source_transfer_ref,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// BalanceResponse saldo actual de un producto controlado.
type BalanceResponse struct {
	ProductID string          `json:"product_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// CountResponse conteo de asientos por tipo.
type CountResponse struct {
	TransactionType string `json:"transaction_type,omitempty"`
	Count           int    `json:"count"`
}

// RecalculateResponse resultado del recálculo manual.
type RecalculateResponse struct {
	ProductID string `json:"product_id"`
	Changed   int    `json:"changed"`
}

// SaleLineRequest línea de una venta POS finalizada.
type SaleLineRequest struct {
	ProductID string          `json:"product_id"`
	LotRef    string          `json:"lot_ref,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// RecordSaleRequest body para POST /api/register/sales.
type RecordSaleRequest struct {
	OrderRef          string            `json:"order_ref"`
	Date              time.Time         `json:"date"`
	PatientName       string            `json:"patient_name,omitempty"`
	PatientIDNumber   string            `json:"patient_id_number,omitempty"`
	PrescriptionRef   string            `json:"prescription_ref,omitempty"`
	PrescriberName    string            `json:"prescriber_name,omitempty"`
	PrescriberLicense string            `json:"prescriber_license,omitempty"`
	DispensedBy       string            `json:"dispensed_by,omitempty"`
	Lines             []SaleLineRequest `json:"lines"`
}

// ReceiptLineRequest línea de una recepción o traslado.
type ReceiptLineRequest struct {
	ProductID string          `json:"product_id"`
	LotRef    string          `json:"lot_ref,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// RecordReceiptRequest body para POST /api/register/receipts.
type RecordReceiptRequest struct {
	TransactionType  string               `json:"transaction_type"` // receipt, transfer_in, transfer_out
	Date             time.Time            `json:"date"`
	SupplierRef      string               `json:"supplier_ref,omitempty"`
	PurchaseOrderRef string               `json:"purchase_order_ref,omitempty"`
	InvoiceRef       string               `json:"invoice_ref,omitempty"`
	TransferRef      string               `json:"transfer_ref,omitempty"`
	Remarks          string               `json:"remarks,omitempty"`
	Lines            []ReceiptLineRequest `json:"lines"`
}

// ProductReturnDTO fila del retorno mensual PPB.
type ProductReturnDTO struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name,omitempty"`
	DrugSchedule   string          `json:"drug_schedule,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Received       decimal.Decimal `json:"received"`
	Dispensed      decimal.Decimal `json:"dispensed"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Entries        int             `json:"entries"`
}

// MonthlyReturnResponse retorno mensual PPB (datos; el formato del documento lo define el reporte).
type MonthlyReturnResponse struct {
	Year     int                `json:"year"`
	Month    int                `json:"month"`
	Products []ProductReturnDTO `json:"products"`
}

// ViolationDTO regla incumplida.
type ViolationDTO struct {
	Kind    string `json:"kind"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ComplianceErrorResponse cuerpo 422 con todas las violaciones del asiento.
type ComplianceErrorResponse struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Violations []ViolationDTO `json:"violations"`
}
