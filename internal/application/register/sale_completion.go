package register

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// WalkInPatient nombre usado cuando la venta no tiene cliente asociado.
const WalkInPatient = "Walk-in Customer"

// Sale venta POS finalizada. Patient y Prescriber vienen del cliente y de la receta vinculada.
type Sale struct {
	OrderRef          string
	Date              time.Time
	PatientName       string
	PatientIDNumber   string
	PrescriptionRef   string
	PrescriberName    string
	PrescriberLicense string
	DispensedBy       string // usuario que dispensó; vacío = actor
	Lines             []SaleLine
}

// SaleLine línea de la venta.
type SaleLine struct {
	ProductID string
	LotRef    string
	Quantity  decimal.Decimal
}

// SaleCompletionUseCase crea un asiento de dispensación por cada línea controlada de una venta.
type SaleCompletionUseCase struct {
	txRunner TxRunner
	record   *RecordEntryUseCase
}

// NewSaleCompletionUseCase construye el caso de uso sobre el mismo motor de registro.
func NewSaleCompletionUseCase(txRunner TxRunner, record *RecordEntryUseCase) *SaleCompletionUseCase {
	return &SaleCompletionUseCase{txRunner: txRunner, record: record}
}

// RecordSale registra todas las líneas controladas en una sola transacción (todas o ninguna).
// Las líneas de productos no controlados se omiten.
func (uc *SaleCompletionUseCase) RecordSale(ctx context.Context, actorID string, sale Sale) ([]*entity.RegisterEntry, error) {
	if actorID == "" || sale.OrderRef == "" || len(sale.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	patient := sale.PatientName
	if patient == "" {
		patient = WalkInPatient
	}
	authorizedBy := sale.DispensedBy
	if authorizedBy == "" {
		authorizedBy = actorID
	}
	var date *time.Time
	if !sale.Date.IsZero() {
		date = &sale.Date
	}

	var created []*entity.RegisterEntry
	err := uc.txRunner.Run(ctx, func(
		entryRepo repository.RegisterEntryRepository,
		productRepo repository.ProductRepository,
		userRepo repository.UserRepository,
	) error {
		created = created[:0]
		productIDs := make([]string, 0, len(sale.Lines))
		for _, line := range sale.Lines {
			productIDs = append(productIDs, line.ProductID)
		}
		controlled, err := controlledProducts(ctx, productRepo, productIDs)
		if err != nil {
			return err
		}
		for _, line := range sale.Lines {
			if !controlled[line.ProductID] {
				continue
			}
			e, err := uc.record.insertInTx(ctx, entryRepo, productRepo, userRepo, actorID, EntryDraft{
				Date:              date,
				ProductID:         line.ProductID,
				TransactionType:   entity.TransactionDispensing,
				QuantityDispensed: line.Quantity,
				PrescriptionRef:   sale.PrescriptionRef,
				PatientName:       patient,
				PatientIDNumber:   sale.PatientIDNumber,
				PrescriberName:    sale.PrescriberName,
				PrescriberLicense: sale.PrescriberLicense,
				LotRef:            line.LotRef,
				AuthorizedBy:      authorizedBy,
				SourceOrderRef:    sale.OrderRef,
				Remarks:           fmt.Sprintf("POS Sale - Order %s", sale.OrderRef),
			})
			if err != nil {
				return err
			}
			created = append(created, e)
		}
		return nil
	})
	if err != nil {
		uc.record.observeFailure(err)
		return nil, err
	}
	for _, e := range created {
		uc.record.metrics.EntryRecorded(e.TransactionType)
	}
	uc.record.log.Debug().Str("order_ref", sale.OrderRef).Int("entries", len(created)).Msg("venta registrada en el registro de controlados")
	return created, nil
}
