package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
)

var _ repository.RegisterEntryRepository = (*RegisterEntryRepo)(nil)

const entryColumns = `id, date, product_id, transaction_type, quantity_received, quantity_dispensed, running_balance,
	prescription_ref, patient_name, patient_id_number, prescriber_name, prescriber_license,
	supplier_ref, purchase_order_ref, invoice_ref, lot_ref,
	authorized_by, witnessed_by, remarks, source_order_ref, source_transfer_ref, created_at, updated_at`

// RegisterEntryRepo implementación sobre PostgreSQL del registro de controlados (usable con pool o tx).
// No expone borrado: los asientos son permanentes.
type RegisterEntryRepo struct {
	q Querier
}

// NewRegisterEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRegisterEntryRepository(q Querier) *RegisterEntryRepo {
	return &RegisterEntryRepo{q: q}
}

// Create persiste el asiento y asigna ID (BIGSERIAL, monotónico).
func (r *RegisterEntryRepo) Create(ctx context.Context, e *entity.RegisterEntry) error {
	query := `
		INSERT INTO controlled_drug_register (
			date, product_id, transaction_type, quantity_received, quantity_dispensed, running_balance,
			prescription_ref, patient_name, patient_id_number, prescriber_name, prescriber_license,
			supplier_ref, purchase_order_ref, invoice_ref, lot_ref,
			authorized_by, witnessed_by, remarks, source_order_ref, source_transfer_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		e.Date, e.ProductID, string(e.TransactionType), e.QuantityReceived, e.QuantityDispensed, e.RunningBalance,
		e.PrescriptionRef, e.PatientName, e.PatientIDNumber, e.PrescriberName, e.PrescriberLicense,
		e.SupplierRef, e.PurchaseOrderRef, e.InvoiceRef, e.LotRef,
		e.AuthorizedBy, nullIfEmpty(e.WitnessedBy), e.Remarks, e.SourceOrderRef, e.SourceTransferRef,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("create register entry: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create register entry: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento por ID (nil si no existe).
func (r *RegisterEntryRepo) GetByID(ctx context.Context, id int64) (*entity.RegisterEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM controlled_drug_register WHERE id = $1`
	e, err := scanEntry(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get register entry: %w", err)
	}
	return e, nil
}

// Update reescribe los campos editables del asiento, incluido su saldo almacenado.
func (r *RegisterEntryRepo) Update(ctx context.Context, e *entity.RegisterEntry) error {
	query := `
		UPDATE controlled_drug_register SET
			date = $2, product_id = $3, transaction_type = $4, quantity_received = $5, quantity_dispensed = $6,
			running_balance = $7, prescription_ref = $8, patient_name = $9, patient_id_number = $10,
			prescriber_name = $11, prescriber_license = $12, supplier_ref = $13, purchase_order_ref = $14,
			invoice_ref = $15, lot_ref = $16, authorized_by = $17, witnessed_by = $18, remarks = $19, updated_at = $20
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		e.ID, e.Date, e.ProductID, string(e.TransactionType), e.QuantityReceived, e.QuantityDispensed,
		e.RunningBalance, e.PrescriptionRef, e.PatientName, e.PatientIDNumber,
		e.PrescriberName, e.PrescriberLicense, e.SupplierRef, e.PurchaseOrderRef,
		e.InvoiceRef, e.LotRef, e.AuthorizedBy, nullIfEmpty(e.WitnessedBy), e.Remarks, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update register entry: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateBalances escribe los saldos recalculados en un solo batch.
func (r *RegisterEntryRepo) UpdateBalances(ctx context.Context, changes []entity.BalanceChange) error {
	if len(changes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range changes {
		batch.Queue(`UPDATE controlled_drug_register SET running_balance = $2 WHERE id = $1`, c.EntryID, c.RunningBalance)
	}
	br := r.q.SendBatch(ctx, batch)
	for _, c := range changes {
		cmd, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return fmt.Errorf("update running balance %d: %w", c.EntryID, err)
		}
		if cmd.RowsAffected() == 0 {
			_ = br.Close()
			return fmt.Errorf("update running balance %d: %w", c.EntryID, domain.ErrNotFound)
		}
	}
	return br.Close()
}

// ListByProduct lista los asientos de un producto en orden (fecha, id) con rango de fechas inclusivo.
func (r *RegisterEntryRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time) ([]*entity.RegisterEntry, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, nil
	}
	query := `SELECT ` + entryColumns + ` FROM controlled_drug_register WHERE product_id = $1`
	args := []any{productID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND date <= $%d", pos)
		args = append(args, *to)
	}
	query += " ORDER BY date, id"
	return r.list(ctx, query, args...)
}

// LastByProduct devuelve el último asiento del producto (nil si no hay).
func (r *RegisterEntryRepo) LastByProduct(ctx context.Context, productID string) (*entity.RegisterEntry, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, nil
	}
	query := `SELECT ` + entryColumns + ` FROM controlled_drug_register
		WHERE product_id = $1 ORDER BY date DESC, id DESC LIMIT 1`
	return r.one(ctx, query, productID)
}

// LastAtOrBefore devuelve el último asiento con fecha <= t (nil si no hay).
func (r *RegisterEntryRepo) LastAtOrBefore(ctx context.Context, productID string, t time.Time) (*entity.RegisterEntry, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, nil
	}
	query := `SELECT ` + entryColumns + ` FROM controlled_drug_register
		WHERE product_id = $1 AND date <= $2 ORDER BY date DESC, id DESC LIMIT 1`
	return r.one(ctx, query, productID, t)
}

// CountByType cuenta asientos, opcionalmente por tipo y rango de fechas inclusivo.
func (r *RegisterEntryRepo) CountByType(ctx context.Context, txType *entity.TransactionType, from, to *time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM controlled_drug_register WHERE 1=1`
	var args []any
	pos := 1
	if txType != nil {
		query += fmt.Sprintf(" AND transaction_type = $%d", pos)
		args = append(args, string(*txType))
		pos++
	}
	if from != nil {
		query += fmt.Sprintf(" AND date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND date <= $%d", pos)
		args = append(args, *to)
	}
	var n int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count register entries: %w", err)
	}
	return n, nil
}

// ListProductIDs productos con al menos un asiento.
func (r *RegisterEntryRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT product_id::text FROM controlled_drug_register ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list register products: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *RegisterEntryRepo) one(ctx context.Context, query string, args ...any) (*entity.RegisterEntry, error) {
	e, err := scanEntry(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get register entry: %w", err)
	}
	return e, nil
}

func (r *RegisterEntryRepo) list(ctx context.Context, query string, args ...any) ([]*entity.RegisterEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list register entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.RegisterEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan register entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanEntry(row pgx.Row) (*entity.RegisterEntry, error) {
	var e entity.RegisterEntry
	var txType string
	var witnessedBy *string
	if err := row.Scan(
		&e.ID, &e.Date, &e.ProductID, &txType, &e.QuantityReceived, &e.QuantityDispensed, &e.RunningBalance,
		&e.PrescriptionRef, &e.PatientName, &e.PatientIDNumber, &e.PrescriberName, &e.PrescriberLicense,
		&e.SupplierRef, &e.PurchaseOrderRef, &e.InvoiceRef, &e.LotRef,
		&e.AuthorizedBy, &witnessedBy, &e.Remarks, &e.SourceOrderRef, &e.SourceTransferRef,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.TransactionType = entity.TransactionType(txType)
	e.WitnessedBy = stringOrEmpty(witnessedBy)
	return &e, nil
}
