package register

import (
	"context"

	"github.com/jhoicas/pharmacy-register/internal/application/dto"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
)

// InsertFromRequest adapta el request HTTP al caso de uso Insert(ctx, actorID, EntryDraft).
func (uc *RecordEntryUseCase) InsertFromRequest(ctx context.Context, actorID string, in dto.CreateEntryRequest) (*dto.EntryResponse, error) {
	e, err := uc.Insert(ctx, actorID, EntryDraft{
		Date:              in.Date,
		ProductID:         in.ProductID,
		TransactionType:   entity.TransactionType(in.TransactionType),
		QuantityReceived:  in.QuantityReceived,
		QuantityDispensed: in.QuantityDispensed,
		PrescriptionRef:   in.PrescriptionRef,
		PatientName:       in.PatientName,
		PatientIDNumber:   in.PatientIDNumber,
		PrescriberName:    in.PrescriberName,
		PrescriberLicense: in.PrescriberLicense,
		SupplierRef:       in.SupplierRef,
		PurchaseOrderRef:  in.PurchaseOrderRef,
		InvoiceRef:        in.InvoiceRef,
		LotRef:            in.LotRef,
		AuthorizedBy:      in.AuthorizedBy,
		WitnessedBy:       in.WitnessedBy,
		Remarks:           in.Remarks,
		SourceOrderRef:    in.SourceOrderRef,
		SourceTransferRef: in.SourceTransferRef,
	})
	if err != nil {
		return nil, err
	}
	return ToEntryResponse(e), nil
}

// UpdateFromRequest adapta el PATCH HTTP a Update(ctx, actorID, id, EntryPatch).
func (uc *RecordEntryUseCase) UpdateFromRequest(ctx context.Context, actorID string, id int64, in dto.UpdateEntryRequest) (*dto.EntryResponse, error) {
	patch := entity.EntryPatch{
		Date:              in.Date,
		ProductID:         in.ProductID,
		QuantityReceived:  in.QuantityReceived,
		QuantityDispensed: in.QuantityDispensed,
		PrescriptionRef:   in.PrescriptionRef,
		PatientName:       in.PatientName,
		PatientIDNumber:   in.PatientIDNumber,
		PrescriberName:    in.PrescriberName,
		PrescriberLicense: in.PrescriberLicense,
		SupplierRef:       in.SupplierRef,
		PurchaseOrderRef:  in.PurchaseOrderRef,
		InvoiceRef:        in.InvoiceRef,
		LotRef:            in.LotRef,
		AuthorizedBy:      in.AuthorizedBy,
		WitnessedBy:       in.WitnessedBy,
		Remarks:           in.Remarks,
	}
	if in.TransactionType != nil {
		t := entity.TransactionType(*in.TransactionType)
		patch.TransactionType = &t
	}
	e, err := uc.Update(ctx, actorID, id, patch)
	if err != nil {
		return nil, err
	}
	return ToEntryResponse(e), nil
}

// RecordSaleFromRequest adapta el hook de venta POS.
func (uc *SaleCompletionUseCase) RecordSaleFromRequest(ctx context.Context, actorID string, in dto.RecordSaleRequest) ([]dto.EntryResponse, error) {
	sale := Sale{
		OrderRef:          in.OrderRef,
		Date:              in.Date,
		PatientName:       in.PatientName,
		PatientIDNumber:   in.PatientIDNumber,
		PrescriptionRef:   in.PrescriptionRef,
		PrescriberName:    in.PrescriberName,
		PrescriberLicense: in.PrescriberLicense,
		DispensedBy:       in.DispensedBy,
	}
	for _, l := range in.Lines {
		sale.Lines = append(sale.Lines, SaleLine{ProductID: l.ProductID, LotRef: l.LotRef, Quantity: l.Quantity})
	}
	entries, err := uc.RecordSale(ctx, actorID, sale)
	if err != nil {
		return nil, err
	}
	return ToEntryResponses(entries), nil
}

// RecordReceiptFromRequest adapta el hook de recepción/traslado.
func (uc *StockReceiptUseCase) RecordReceiptFromRequest(ctx context.Context, actorID string, in dto.RecordReceiptRequest) ([]dto.EntryResponse, error) {
	receipt := Receipt{
		TransactionType:  entity.TransactionType(in.TransactionType),
		Date:             in.Date,
		SupplierRef:      in.SupplierRef,
		PurchaseOrderRef: in.PurchaseOrderRef,
		InvoiceRef:       in.InvoiceRef,
		TransferRef:      in.TransferRef,
		Remarks:          in.Remarks,
	}
	for _, l := range in.Lines {
		receipt.Lines = append(receipt.Lines, ReceiptLine{ProductID: l.ProductID, LotRef: l.LotRef, Quantity: l.Quantity})
	}
	entries, err := uc.RecordReceipt(ctx, actorID, receipt)
	if err != nil {
		return nil, err
	}
	return ToEntryResponses(entries), nil
}

// ToEntryResponse mapea la entidad al DTO de salida.
func ToEntryResponse(e *entity.RegisterEntry) *dto.EntryResponse {
	return &dto.EntryResponse{
		ID:                e.ID,
		Date:              e.Date,
		ProductID:         e.ProductID,
		TransactionType:   string(e.TransactionType),
		QuantityReceived:  e.QuantityReceived,
		QuantityDispensed: e.QuantityDispensed,
		RunningBalance:    e.RunningBalance,
		PrescriptionRef:   e.PrescriptionRef,
		PatientName:       e.PatientName,
		PatientIDNumber:   e.PatientIDNumber,
		PrescriberName:    e.PrescriberName,
		PrescriberLicense: e.PrescriberLicense,
		SupplierRef:       e.SupplierRef,
		PurchaseOrderRef:  e.PurchaseOrderRef,
		InvoiceRef:        e.InvoiceRef,
		LotRef:            e.LotRef,
		AuthorizedBy:      e.AuthorizedBy,
		WitnessedBy:       e.WitnessedBy,
		Remarks:           e.Remarks,
		SourceOrderRef:    e.SourceOrderRef,
		SourceTransferRef: e.SourceTransferRef,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

// ToEntryResponses mapea una lista de asientos.
func ToEntryResponses(entries []*entity.RegisterEntry) []dto.EntryResponse {
	out := make([]dto.EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, *ToEntryResponse(e))
	}
	return out
}

// ToMonthlyReturnResponse mapea el retorno mensual.
func ToMonthlyReturnResponse(year, month int, rows []ProductReturn) *dto.MonthlyReturnResponse {
	out := &dto.MonthlyReturnResponse{Year: year, Month: month, Products: make([]dto.ProductReturnDTO, 0, len(rows))}
	for _, r := range rows {
		out.Products = append(out.Products, dto.ProductReturnDTO{
			ProductID:      r.ProductID,
			ProductName:    r.ProductName,
			DrugSchedule:   r.DrugSchedule,
			OpeningBalance: r.OpeningBalance,
			Received:       r.Received,
			Dispensed:      r.Dispensed,
			ClosingBalance: r.ClosingBalance,
			Entries:        r.Entries,
		})
	}
	return out
}
