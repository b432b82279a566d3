package register

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/register"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Strategy estrategia de mantenimiento del saldo corrido.
type Strategy string

const (
	// StrategyIncremental: O(1) al final de la secuencia; inserciones retroactivas desplazan
	// los saldos posteriores por el delta del asiento.
	StrategyIncremental Strategy = "incremental"
	// StrategyFull: recorre la secuencia completa del producto en cada escritura.
	StrategyFull Strategy = "full"
)

// ParseStrategy interpreta el valor de configuración (vacío = incremental).
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyIncremental:
		return StrategyIncremental, nil
	case StrategyFull:
		return StrategyFull, nil
	}
	return "", fmt.Errorf("estrategia de recálculo desconocida %q: %w", s, domain.ErrInvalidInput)
}

// RecordEntryUseCase registra y edita asientos del registro de controlados de forma transaccional:
// bloquea el producto (SELECT FOR UPDATE), resuelve usuarios, valida, persiste y recalcula saldos.
type RecordEntryUseCase struct {
	txRunner TxRunner
	strategy Strategy
	metrics  Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewRecordEntryUseCase construye el caso de uso. metrics nil usa NopMetrics.
func NewRecordEntryUseCase(txRunner TxRunner, strategy Strategy, metrics Metrics, log zerolog.Logger) *RecordEntryUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if strategy == "" {
		strategy = StrategyIncremental
	}
	return &RecordEntryUseCase{
		txRunner: txRunner,
		strategy: strategy,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj usado para fechas por defecto (tests).
func (uc *RecordEntryUseCase) WithClock(now func() time.Time) *RecordEntryUseCase {
	uc.now = now
	return uc
}

// EntryDraft entrada para registrar un asiento. Date nil = ahora; AuthorizedBy vacío = actor.
type EntryDraft struct {
	Date              *time.Time
	ProductID         string
	TransactionType   entity.TransactionType
	QuantityReceived  decimal.Decimal
	QuantityDispensed decimal.Decimal
	PrescriptionRef   string
	PatientName       string
	PatientIDNumber   string
	PrescriberName    string
	PrescriberLicense string
	SupplierRef       string
	PurchaseOrderRef  string
	InvoiceRef        string
	LotRef            string
	AuthorizedBy      string
	WitnessedBy       string
	Remarks           string
	SourceOrderRef    string
	SourceTransferRef string
}

func (d EntryDraft) toEntry(actorID string, now time.Time) *entity.RegisterEntry {
	date := now
	if d.Date != nil && !d.Date.IsZero() {
		date = *d.Date
	}
	authorizedBy := d.AuthorizedBy
	if authorizedBy == "" {
		authorizedBy = actorID
	}
	return &entity.RegisterEntry{
		Date:              date,
		ProductID:         d.ProductID,
		TransactionType:   d.TransactionType,
		QuantityReceived:  d.QuantityReceived,
		QuantityDispensed: d.QuantityDispensed,
		PrescriptionRef:   d.PrescriptionRef,
		PatientName:       d.PatientName,
		PatientIDNumber:   d.PatientIDNumber,
		PrescriberName:    d.PrescriberName,
		PrescriberLicense: d.PrescriberLicense,
		SupplierRef:       d.SupplierRef,
		PurchaseOrderRef:  d.PurchaseOrderRef,
		InvoiceRef:        d.InvoiceRef,
		LotRef:            d.LotRef,
		AuthorizedBy:      authorizedBy,
		WitnessedBy:       d.WitnessedBy,
		Remarks:           d.Remarks,
		SourceOrderRef:    d.SourceOrderRef,
		SourceTransferRef: d.SourceTransferRef,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Insert valida y persiste un asiento nuevo con su saldo corrido, desplazando los saldos
// posteriores del mismo producto. Todo ocurre en una transacción; cualquier error revierte.
func (uc *RecordEntryUseCase) Insert(ctx context.Context, actorID string, draft EntryDraft) (*entity.RegisterEntry, error) {
	if actorID == "" {
		return nil, domain.ErrInvalidInput
	}
	var created *entity.RegisterEntry
	err := uc.txRunner.Run(ctx, func(
		entryRepo repository.RegisterEntryRepository,
		productRepo repository.ProductRepository,
		userRepo repository.UserRepository,
	) error {
		e, err := uc.insertInTx(ctx, entryRepo, productRepo, userRepo, actorID, draft)
		if err != nil {
			return err
		}
		created = e
		return nil
	})
	if err != nil {
		uc.observeFailure(err)
		return nil, err
	}
	uc.metrics.EntryRecorded(created.TransactionType)
	uc.log.Debug().
		Int64("entry_id", created.ID).
		Str("product_id", created.ProductID).
		Str("type", string(created.TransactionType)).
		Str("running_balance", created.RunningBalance.String()).
		Msg("asiento registrado")
	return created, nil
}

// insertInTx ejecuta el alta con los repositorios de la transacción del caller.
// Lo usan Insert y los colaboradores de venta y recepción que agrupan varias líneas.
func (uc *RecordEntryUseCase) insertInTx(
	ctx context.Context,
	entryRepo repository.RegisterEntryRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	actorID string,
	draft EntryDraft,
) (*entity.RegisterEntry, error) {
	entry := draft.toEntry(actorID, uc.now())

	// Bloquea el producto: escritores del mismo producto se serializan aquí
	product, err := lockProduct(ctx, productRepo, entry.ProductID)
	if err != nil {
		return nil, err
	}
	if err := resolveUsers(ctx, userRepo, entry); err != nil {
		return nil, err
	}
	if violations := register.Validate(entry, product); len(violations) > 0 {
		return nil, &domain.ComplianceError{Violations: violations}
	}

	start := time.Now()
	if uc.strategy == StrategyFull {
		err = uc.insertFull(ctx, entryRepo, entry)
	} else {
		err = uc.insertIncremental(ctx, entryRepo, entry)
	}
	if err != nil {
		return nil, err
	}
	uc.metrics.Recalculated(uc.strategy, time.Since(start))
	return entry, nil
}

// insertIncremental: el asiento nuevo recibe el ID mayor, así que todos los asientos con la
// misma fecha lo preceden. Su saldo es el del predecesor más su delta; los posteriores se desplazan.
func (uc *RecordEntryUseCase) insertIncremental(ctx context.Context, entryRepo repository.RegisterEntryRepository, e *entity.RegisterEntry) error {
	prev, err := entryRepo.LastAtOrBefore(ctx, e.ProductID, e.Date)
	if err != nil {
		return err
	}
	opening := decimal.Zero
	if prev != nil {
		opening = prev.RunningBalance
	}
	e.RunningBalance = opening.Add(e.Delta())

	candidates, err := entryRepo.ListByProduct(ctx, e.ProductID, &e.Date, nil)
	if err != nil {
		return err
	}
	later := make([]*entity.RegisterEntry, 0, len(candidates))
	for _, c := range candidates {
		if c.Date.After(e.Date) {
			later = append(later, c)
		}
	}

	if err := entryRepo.Create(ctx, e); err != nil {
		return err
	}
	if changes := register.ShiftBalances(later, e.Delta()); len(changes) > 0 {
		if err := entryRepo.UpdateBalances(ctx, changes); err != nil {
			return err
		}
	}
	return uc.verifyFrom(ctx, entryRepo, e.ProductID, prev)
}

// insertFull: persiste y recorre toda la secuencia del producto.
func (uc *RecordEntryUseCase) insertFull(ctx context.Context, entryRepo repository.RegisterEntryRepository, e *entity.RegisterEntry) error {
	if err := entryRepo.Create(ctx, e); err != nil {
		return err
	}
	all, err := uc.recalculateProduct(ctx, entryRepo, e.ProductID)
	if err != nil {
		return err
	}
	for _, x := range all {
		if x.ID == e.ID {
			e.RunningBalance = x.RunningBalance
			break
		}
	}
	return nil
}

// recalculateProduct recorre la secuencia completa, persiste solo los saldos que cambiaron
// y verifica el resultado releyendo del store. Devuelve la secuencia recalculada.
func (uc *RecordEntryUseCase) recalculateProduct(ctx context.Context, entryRepo repository.RegisterEntryRepository, productID string) ([]*entity.RegisterEntry, error) {
	all, err := entryRepo.ListByProduct(ctx, productID, nil, nil)
	if err != nil {
		return nil, err
	}
	register.SortEntries(all)
	if changes := register.Recalculate(all); len(changes) > 0 {
		if err := entryRepo.UpdateBalances(ctx, changes); err != nil {
			return nil, err
		}
	}
	if err := uc.verifyFrom(ctx, entryRepo, productID, nil); err != nil {
		return nil, err
	}
	return all, nil
}

// verifyFrom relee los asientos desde anchor (incluido) y comprueba la cadena de saldos.
// anchor nil verifica la secuencia completa desde saldo cero.
func (uc *RecordEntryUseCase) verifyFrom(ctx context.Context, entryRepo repository.RegisterEntryRepository, productID string, anchor *entity.RegisterEntry) error {
	var from *time.Time
	opening := decimal.Zero
	if anchor != nil {
		from = &anchor.Date
		opening = anchor.RunningBalance
	}
	window, err := entryRepo.ListByProduct(ctx, productID, from, nil)
	if err != nil {
		return err
	}
	register.SortEntries(window)
	if anchor != nil {
		// descarta el ancla y lo que la precede con la misma fecha
		i := 0
		for i < len(window) && !anchor.Before(window[i]) {
			i++
		}
		window = window[i:]
	}
	if err := register.Verify(productID, opening, window); err != nil {
		uc.reportInconsistency(err, window)
		return err
	}
	return nil
}

// Update aplica un patch parcial. Cambios de fecha, producto o cantidades recalculan la
// secuencia completa del producto (y del producto anterior si cambió).
func (uc *RecordEntryUseCase) Update(ctx context.Context, actorID string, id int64, patch entity.EntryPatch) (*entity.RegisterEntry, error) {
	if actorID == "" {
		return nil, domain.ErrInvalidInput
	}
	var result *entity.RegisterEntry
	err := uc.txRunner.Run(ctx, func(
		entryRepo repository.RegisterEntryRepository,
		productRepo repository.ProductRepository,
		userRepo repository.UserRepository,
	) error {
		current, err := entryRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return &domain.NotFoundError{Resource: "register_entry", Field: "id", ID: strconv.FormatInt(id, 10)}
		}
		updated := patch.Apply(*current)

		// Si el asiento cambia de producto se bloquean ambos en orden de ID
		locked, err := lockProducts(ctx, productRepo, []string{current.ProductID, updated.ProductID})
		if err != nil {
			return err
		}
		productIDs := sortedKeys(locked)

		// Relee tras el bloqueo: otro escritor pudo modificar el asiento mientras esperábamos
		current, err = entryRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return &domain.NotFoundError{Resource: "register_entry", Field: "id", ID: strconv.FormatInt(id, 10)}
		}
		if _, ok := locked[current.ProductID]; !ok {
			return domain.ErrConflict
		}
		updated = patch.Apply(*current)
		updated.UpdatedAt = uc.now()
		product := locked[updated.ProductID]

		if err := resolveUsers(ctx, userRepo, &updated); err != nil {
			return err
		}
		if violations := register.Validate(&updated, product); len(violations) > 0 {
			return &domain.ComplianceError{Violations: violations}
		}
		if err := entryRepo.Update(ctx, &updated); err != nil {
			return err
		}
		if patch.AffectsBalance() {
			start := time.Now()
			for _, pid := range productIDs {
				if _, err := uc.recalculateProduct(ctx, entryRepo, pid); err != nil {
					return err
				}
			}
			uc.metrics.Recalculated(StrategyFull, time.Since(start))
		}
		result, err = entryRepo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		uc.observeFailure(err)
		return nil, err
	}
	uc.log.Debug().
		Int64("entry_id", result.ID).
		Str("product_id", result.ProductID).
		Bool("recalculated", patch.AffectsBalance()).
		Msg("asiento actualizado")
	return result, nil
}

// Recalculate repara los saldos de un producto con un recorrido completo y devuelve
// cuántos asientos cambiaron. Sobre una secuencia consistente devuelve 0.
func (uc *RecordEntryUseCase) Recalculate(ctx context.Context, productID string) (int, error) {
	changed := 0
	err := uc.txRunner.Run(ctx, func(
		entryRepo repository.RegisterEntryRepository,
		productRepo repository.ProductRepository,
		_ repository.UserRepository,
	) error {
		if _, err := lockProduct(ctx, productRepo, productID); err != nil {
			return err
		}
		all, err := entryRepo.ListByProduct(ctx, productID, nil, nil)
		if err != nil {
			return err
		}
		register.SortEntries(all)
		start := time.Now()
		changes := register.Recalculate(all)
		if len(changes) > 0 {
			if err := entryRepo.UpdateBalances(ctx, changes); err != nil {
				return err
			}
		}
		changed = len(changes)
		if err := uc.verifyFrom(ctx, entryRepo, productID, nil); err != nil {
			return err
		}
		uc.metrics.Recalculated(StrategyFull, time.Since(start))
		return nil
	})
	if err != nil {
		uc.observeFailure(err)
		return 0, err
	}
	if changed > 0 {
		uc.log.Warn().Str("product_id", productID).Int("changed", changed).Msg("saldos corregidos por recálculo manual")
	}
	return changed, nil
}

// lockProducts bloquea los productos distintos en orden de ID: dos transacciones con los mismos
// productos en distinto orden no se bloquean mutuamente. El bloqueo es reentrante dentro de la tx.
func lockProducts(ctx context.Context, productRepo repository.ProductRepository, productIDs []string) (map[string]*entity.Product, error) {
	locked := make(map[string]*entity.Product, len(productIDs))
	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if _, seen := locked[id]; !seen {
			locked[id] = nil
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		p, err := lockProduct(ctx, productRepo, id)
		if err != nil {
			return nil, err
		}
		locked[id] = p
	}
	return locked, nil
}

// controlledProducts resuelve los productos de un documento de varias líneas y bloquea, en orden
// de ID y antes de registrar ninguna línea, los que son controlados. Devuelve cuáles lo son.
func controlledProducts(ctx context.Context, productRepo repository.ProductRepository, productIDs []string) (map[string]bool, error) {
	controlled := make(map[string]bool, len(productIDs))
	toLock := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if _, seen := controlled[id]; seen {
			continue
		}
		product, err := productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, &domain.NotFoundError{Resource: "product", Field: "product_id", ID: id}
		}
		controlled[id] = product.IsControlledSubstance()
		if controlled[id] {
			toLock = append(toLock, id)
		}
	}
	if _, err := lockProducts(ctx, productRepo, toLock); err != nil {
		return nil, err
	}
	return controlled, nil
}

func sortedKeys(m map[string]*entity.Product) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lockProduct(ctx context.Context, productRepo repository.ProductRepository, productID string) (*entity.Product, error) {
	if productID == "" {
		return nil, &domain.NotFoundError{Resource: "product", Field: "product_id", ID: productID}
	}
	product, err := productRepo.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "product", Field: "product_id", ID: productID}
	}
	return product, nil
}

// resolveUsers verifica que authorized_by (obligatorio) y witnessed_by (si viene) existan.
func resolveUsers(ctx context.Context, userRepo repository.UserRepository, e *entity.RegisterEntry) error {
	if e.AuthorizedBy == "" {
		return &domain.NotFoundError{Resource: "user", Field: "authorized_by", ID: e.AuthorizedBy}
	}
	u, err := userRepo.GetByID(ctx, e.AuthorizedBy)
	if err != nil {
		return err
	}
	if u == nil {
		return &domain.NotFoundError{Resource: "user", Field: "authorized_by", ID: e.AuthorizedBy}
	}
	if e.WitnessedBy == "" {
		return nil
	}
	w, err := userRepo.GetByID(ctx, e.WitnessedBy)
	if err != nil {
		return err
	}
	if w == nil {
		return &domain.NotFoundError{Resource: "user", Field: "witnessed_by", ID: e.WitnessedBy}
	}
	return nil
}

func (uc *RecordEntryUseCase) observeFailure(err error) {
	var ce *domain.ComplianceError
	if errors.As(err, &ce) {
		uc.metrics.ViolationsRejected(ce.Violations)
	}
}

// reportInconsistency registra el contexto completo para investigación manual.
func (uc *RecordEntryUseCase) reportInconsistency(err error, window []*entity.RegisterEntry) {
	uc.metrics.Inconsistency()
	var ie *domain.RecalculationInconsistencyError
	if !errors.As(err, &ie) {
		return
	}
	arr := zerolog.Arr()
	for _, e := range window {
		arr.Dict(zerolog.Dict().
			Int64("id", e.ID).
			Time("date", e.Date).
			Str("type", string(e.TransactionType)).
			Str("received", e.QuantityReceived.String()).
			Str("dispensed", e.QuantityDispensed.String()).
			Str("running_balance", e.RunningBalance.String()))
	}
	uc.log.Error().
		Err(err).
		Str("product_id", ie.ProductID).
		Int64("entry_id", ie.EntryID).
		Str("expected", ie.Expected).
		Str("stored", ie.Stored).
		Array("entries", arr).
		Msg("inconsistencia en saldo corrido; transacción revertida")
}
