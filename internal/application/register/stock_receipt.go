package register

import (
	"context"
	"time"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// Receipt recepción de compra o traslado confirmado.
type Receipt struct {
	TransactionType  entity.TransactionType // receipt, transfer_in o transfer_out
	Date             time.Time
	SupplierRef      string
	PurchaseOrderRef string
	InvoiceRef       string
	TransferRef      string
	Remarks          string
	Lines            []ReceiptLine
}

// ReceiptLine línea de la recepción.
type ReceiptLine struct {
	ProductID string
	LotRef    string
	Quantity  decimal.Decimal
}

// StockReceiptUseCase registra recepciones y traslados de sustancias controladas.
type StockReceiptUseCase struct {
	txRunner TxRunner
	record   *RecordEntryUseCase
}

// NewStockReceiptUseCase construye el caso de uso.
func NewStockReceiptUseCase(txRunner TxRunner, record *RecordEntryUseCase) *StockReceiptUseCase {
	return &StockReceiptUseCase{txRunner: txRunner, record: record}
}

// RecordReceipt crea un asiento por línea controlada en una sola transacción.
func (uc *StockReceiptUseCase) RecordReceipt(ctx context.Context, actorID string, in Receipt) ([]*entity.RegisterEntry, error) {
	if actorID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	switch in.TransactionType {
	case entity.TransactionReceipt, entity.TransactionTransferIn, entity.TransactionTransferOut:
	default:
		return nil, domain.ErrInvalidInput
	}
	var date *time.Time
	if !in.Date.IsZero() {
		date = &in.Date
	}

	var created []*entity.RegisterEntry
	err := uc.txRunner.Run(ctx, func(
		entryRepo repository.RegisterEntryRepository,
		productRepo repository.ProductRepository,
		userRepo repository.UserRepository,
	) error {
		created = created[:0]
		productIDs := make([]string, 0, len(in.Lines))
		for _, line := range in.Lines {
			productIDs = append(productIDs, line.ProductID)
		}
		controlled, err := controlledProducts(ctx, productRepo, productIDs)
		if err != nil {
			return err
		}
		for _, line := range in.Lines {
			if !controlled[line.ProductID] {
				continue
			}
			draft := EntryDraft{
				Date:              date,
				ProductID:         line.ProductID,
				TransactionType:   in.TransactionType,
				SupplierRef:       in.SupplierRef,
				PurchaseOrderRef:  in.PurchaseOrderRef,
				InvoiceRef:        in.InvoiceRef,
				LotRef:            line.LotRef,
				SourceTransferRef: in.TransferRef,
				Remarks:           in.Remarks,
			}
			if in.TransactionType.IsInbound() {
				draft.QuantityReceived = line.Quantity
			} else {
				draft.QuantityDispensed = line.Quantity
			}
			e, err := uc.record.insertInTx(ctx, entryRepo, productRepo, userRepo, actorID, draft)
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
	return created, nil
}
