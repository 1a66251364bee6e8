package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// transferWindow ventana de emparejamiento heurístico para traslados legados
// sin columna ni marcador de enlace.
const transferWindow = 12 * time.Hour

// TransferLine una línea de un envío: un producto y su cantidad.
type TransferLine struct {
	SKU      string
	Quantity decimal.Decimal
}

// TransferInput un envío entre ubicaciones: una o más líneas que viajan
// juntas bajo la misma referencia y en la misma transacción.
type TransferInput struct {
	FromLocationCode string // "" -> ubicación central
	ToLocationCode   string
	Lines            []TransferLine
	MovementDate     *time.Time
	Note             string
}

// UpdateTransferInput edición de un traslado existente. MovementID puede ser
// el transfer_out o cualquiera de sus transfer_in. Campos nil no cambian.
type UpdateTransferInput struct {
	MovementID   int64
	Quantity     *decimal.Decimal
	MovementDate *time.Time
	Note         *string
}

// TransferLineResult resumen de una línea: su transfer_out y el abanico de
// transfer_in creados, uno por lote de origen consumido.
type TransferLineResult struct {
	SKU           string
	Quantity      decimal.Decimal
	OutMovementID int64
	InMovementIDs []int64
	InLotCodes    []string
}

// TransferResult resumen de un envío completo. Todas las líneas comparten
// la misma referencia.
type TransferResult struct {
	Ref   string
	Lines []TransferLineResult
}

// newTransferRef referencia única y legible del traslado.
func newTransferRef(at time.Time) string {
	return fmt.Sprintf("TR-%s-%s", at.UTC().Format("0601021504"),
		strings.ToUpper(uuid.NewString()[:8]))
}

// Transfer registra un envío entre ubicaciones: por cada línea consume FIFO
// en el origen y crea en el destino un transfer_in por cada lote tocado.
// Cada lote de destino hereda el costo unitario y el received_at del lote de
// origen: el traslado nunca rejuvenece ni revaloriza el inventario. Todas las
// líneas se procesan dentro de una sola transacción; si cualquiera falla,
// el envío completo se descarta.
func (uc *LedgerUseCase) Transfer(ctx context.Context, businessID, userID string, in TransferInput) (*TransferResult, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("el envío necesita al menos una línea: %w", domain.ErrInvalidInput)
	}
	if in.ToLocationCode == "" {
		return nil, fmt.Errorf("ubicación destino requerida: %w", domain.ErrInvalidInput)
	}
	fromCode := in.FromLocationCode
	if fromCode == "" {
		fromCode = uc.defaults.CentralLocationCode
	}
	if fromCode == in.ToLocationCode {
		return nil, fmt.Errorf("origen y destino no pueden ser la misma ubicación: %w", domain.ErrInvalidInput)
	}
	products := make([]*entity.Product, len(in.Lines))
	for i, line := range in.Lines {
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("cantidad de traslado debe ser positiva (%s): %w", line.SKU, domain.ErrInvalidInput)
		}
		product, err := uc.productBySKU(businessID, line.SKU)
		if err != nil {
			return nil, err
		}
		products[i] = product
	}

	at := movementDate(in.MovementDate)
	ref := newTransferRef(at)
	result := &TransferResult{Ref: ref}

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		_ repository.ProductRepository,
	) error {
		from, err := getOrCreateLocation(locationRepo, businessID, fromCode)
		if err != nil {
			return err
		}
		to, err := getOrCreateLocation(locationRepo, businessID, in.ToLocationCode)
		if err != nil {
			return err
		}
		for i, line := range in.Lines {
			lineResult, err := transferOneLine(movRepo, lotRepo, allocRepo,
				products[i], from, to, line.Quantity, at, ref, in.Note, userID)
			if err != nil {
				return err
			}
			result.Lines = append(result.Lines, *lineResult)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("ref", ref).
		Int("line_count", len(result.Lines)).
		Msg("traslado registrado")
	return result, nil
}

// transferOneLine mueve una línea del envío: transfer_out en el origen,
// consumo FIFO y abanico de transfer_in en el destino.
func transferOneLine(
	movRepo repository.InventoryMovementRepository,
	lotRepo repository.InventoryLotRepository,
	allocRepo repository.MovementAllocationRepository,
	product *entity.Product,
	from, to *entity.Location,
	quantity decimal.Decimal,
	at time.Time,
	ref, note, userID string,
) (*TransferLineResult, error) {
	available, err := lotRepo.SumRemaining(product.BusinessID, product.ID, from.ID)
	if err != nil {
		return nil, err
	}
	if available.LessThan(quantity) {
		return nil, &domain.StockConflictError{
			SKU:          product.SKU,
			LocationCode: from.Code,
			Available:    available,
			Requested:    quantity,
		}
	}

	out := &entity.InventoryMovement{
		BusinessID:   product.BusinessID,
		ProductID:    product.ID,
		LocationID:   from.ID,
		Type:         entity.MovementTransferOut,
		Quantity:     quantity.Neg(),
		MovementDate: at,
		Note:         withMarker(note, markerTransferRef, ref),
		TransferRef:  ref,
		CreatedBy:    userID,
	}
	if err := movRepo.Create(out); err != nil {
		return nil, fmt.Errorf("crear transfer_out: %w", err)
	}
	segments, err := consumeFIFO(lotRepo, allocRepo, product, from, out.ID, quantity)
	if err != nil {
		return nil, err
	}
	for _, seg := range segments {
		if err := createTransferIn(movRepo, lotRepo, out, to, product, seg, userID); err != nil {
			return nil, err
		}
	}

	lineResult := &TransferLineResult{
		SKU:           product.SKU,
		Quantity:      quantity,
		OutMovementID: out.ID,
	}
	ins, err := movRepo.ListTransferIns(product.BusinessID, out.ID)
	if err != nil {
		return nil, err
	}
	for _, inMv := range ins {
		lineResult.InMovementIDs = append(lineResult.InMovementIDs, inMv.ID)
	}
	lots, err := lotRepo.ListByProduct(product.BusinessID, product.ID)
	if err != nil {
		return nil, err
	}
	for _, lot := range lots {
		if lot.LocationID == to.ID && containsInt64(lineResult.InMovementIDs, lot.MovementID) {
			lineResult.InLotCodes = append(lineResult.InLotCodes, lot.LotCode)
		}
	}
	return lineResult, nil
}

// createTransferIn crea un transfer_in y su lote de destino a partir de un
// segmento consumido en el origen, preservando costo y antigüedad.
func createTransferIn(
	movRepo repository.InventoryMovementRepository,
	lotRepo repository.InventoryLotRepository,
	out *entity.InventoryMovement,
	to *entity.Location,
	product *entity.Product,
	seg consumedSegment,
	userID string,
) error {
	unitCost := seg.Lot.UnitCost
	outID := out.ID
	note := withMarker(withMarker("", markerTransferRef, out.TransferRef), markerTransferOut, fmt.Sprintf("%d", outID))
	inMv := &entity.InventoryMovement{
		BusinessID:    out.BusinessID,
		ProductID:     product.ID,
		LocationID:    to.ID,
		Type:          entity.MovementTransferIn,
		Quantity:      seg.Quantity,
		UnitCost:      &unitCost,
		MovementDate:  out.MovementDate,
		Note:          note,
		TransferRef:   out.TransferRef,
		TransferOutID: &outID,
		CreatedBy:     userID,
	}
	if err := movRepo.Create(inMv); err != nil {
		return fmt.Errorf("crear transfer_in: %w", err)
	}
	lotCode, err := uniqueLotCode(lotCodeBase(product.SKU, out.MovementDate), func(code string) (bool, error) {
		return lotRepo.CodeExists(out.BusinessID, code)
	})
	if err != nil {
		return fmt.Errorf("generar código de lote de traslado: %w", err)
	}
	if err := lotRepo.Create(&entity.InventoryLot{
		BusinessID: out.BusinessID,
		MovementID: inMv.ID,
		ProductID:  product.ID,
		LocationID: to.ID,
		LotCode:    lotCode,
		// El lote de destino conserva la fecha del lote de origen.
		ReceivedAt:   seg.Lot.ReceivedAt,
		UnitCost:     unitCost,
		QtyReceived:  seg.Quantity,
		QtyRemaining: seg.Quantity,
	}); err != nil {
		return fmt.Errorf("crear lote de traslado: %w", err)
	}
	return nil
}

// resolveTransfer localiza el transfer_out y sus transfer_in partiendo de
// cualquier movimiento del traslado, en pases de confianza decreciente:
//
//  1. columna transfer_out_id
//  2. marcador out_id= en la nota (datos legados)
//  3. marcador ref= en la nota
//  4. heurística producto + cantidad + ventana de ±12h
//
// Si ningún pase enlaza, devuelve TransferLinkError con los pases intentados.
func resolveTransfer(
	movRepo repository.InventoryMovementRepository,
	businessID string,
	movementID int64,
) (*entity.InventoryMovement, []*entity.InventoryMovement, error) {
	mv, err := movRepo.GetByID(businessID, movementID)
	if err != nil {
		return nil, nil, err
	}

	var out *entity.InventoryMovement
	switch mv.Type {
	case entity.MovementTransferOut:
		out = mv
	case entity.MovementTransferIn:
		outID := transferOutID(mv)
		if outID == 0 {
			return nil, nil, &domain.TransferLinkError{
				OutMovementID: mv.ID,
				Passes:        []string{"columna transfer_out_id", "marcador out_id en nota"},
				Detail:        "el transfer_in no referencia ningún transfer_out",
			}
		}
		out, err = movRepo.GetByID(businessID, outID)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("movimiento %d no es un traslado: %w", movementID, domain.ErrNotFound)
	}

	var passes []string

	passes = append(passes, "columna transfer_out_id")
	ins, err := movRepo.ListTransferIns(businessID, out.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(ins) > 0 {
		return out, ins, nil
	}

	passes = append(passes, "marcador out_id en nota")
	ins, err = movRepo.SearchTransferInsByNote(businessID, fmt.Sprintf("%s=%d", markerTransferOut, out.ID))
	if err != nil {
		return nil, nil, err
	}
	if len(ins) > 0 {
		return out, ins, nil
	}

	ref := out.TransferRef
	if ref == "" {
		ref = noteMarker(out.Note, markerTransferRef)
	}
	if ref != "" {
		passes = append(passes, "marcador ref en nota")
		ins, err = movRepo.SearchTransferInsByNote(businessID, fmt.Sprintf("%s=%s", markerTransferRef, ref))
		if err != nil {
			return nil, nil, err
		}
		ins = filterTransferIns(ins, out)
		if len(ins) > 0 {
			return out, ins, nil
		}
	}

	passes = append(passes, "heurística producto/cantidad/ventana ±12h")
	candidates, err := movRepo.ListTransferInCandidates(businessID, out.ProductID, "",
		out.MovementDate.Add(-transferWindow), out.MovementDate.Add(transferWindow))
	if err != nil {
		return nil, nil, err
	}
	candidates = filterTransferIns(candidates, out)

	// Los transfer_in viven en el destino; candidatos en la ubicación del
	// out no pueden ser sus patas. El pase solo enlaza si exactamente una
	// ubicación destino suma la cantidad del out.
	byLocation := make(map[string][]*entity.InventoryMovement)
	for _, c := range candidates {
		if c.LocationID == out.LocationID {
			continue
		}
		byLocation[c.LocationID] = append(byLocation[c.LocationID], c)
	}
	var matched []*entity.InventoryMovement
	matchedLocations := 0
	for _, group := range byLocation {
		total := decimal.Zero
		for _, c := range group {
			total = total.Add(c.Quantity)
		}
		if total.Equal(out.Quantity.Neg()) {
			matchedLocations++
			matched = group
		}
	}
	if matchedLocations == 1 {
		return out, matched, nil
	}

	detail := fmt.Sprintf("candidatos heurísticos en %d ubicaciones, ninguna suma la cantidad", len(byLocation))
	if matchedLocations > 1 {
		detail = fmt.Sprintf("heurística ambigua: %d ubicaciones destino suman la cantidad", matchedLocations)
	}
	return nil, nil, &domain.TransferLinkError{
		OutMovementID: out.ID,
		Passes:        passes,
		Detail:        detail,
	}
}

// filterTransferIns descarta candidatos enlazados a otro transfer_out o de
// otro producto.
func filterTransferIns(ins []*entity.InventoryMovement, out *entity.InventoryMovement) []*entity.InventoryMovement {
	filtered := ins[:0]
	for _, in := range ins {
		if in.ProductID != out.ProductID {
			continue
		}
		if in.TransferOutID != nil && *in.TransferOutID != out.ID {
			continue
		}
		filtered = append(filtered, in)
	}
	return filtered
}

// UpdateTransfer edita un traslado: reemplaza el abanico de transfer_in por
// uno nuevo derivado de un replay con la cantidad o fecha editada, y
// reconstruye el producto completo en la misma transacción.
func (uc *LedgerUseCase) UpdateTransfer(ctx context.Context, businessID, userID string, in UpdateTransferInput) (*TransferResult, error) {
	if in.Quantity != nil && !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("cantidad de traslado debe ser positiva: %w", domain.ErrInvalidInput)
	}

	result := &TransferResult{}
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		productRepo repository.ProductRepository,
	) error {
		out, ins, err := resolveTransfer(movRepo, businessID, in.MovementID)
		if err != nil {
			return err
		}
		if len(ins) == 0 {
			return &domain.TransferLinkError{OutMovementID: out.ID, Detail: "traslado sin destinos"}
		}
		product, err := productRepo.GetByID(businessID, out.ProductID)
		if err != nil {
			return err
		}
		to, err := locationRepo.GetByID(businessID, ins[0].LocationID)
		if err != nil {
			return err
		}

		for _, inMv := range ins {
			if err := movRepo.Delete(businessID, inMv.ID); err != nil {
				return fmt.Errorf("borrar transfer_in %d: %w", inMv.ID, err)
			}
		}

		if in.Quantity != nil {
			out.Quantity = in.Quantity.Neg()
		}
		if in.MovementDate != nil {
			out.MovementDate = in.MovementDate.UTC()
		}
		if in.Note != nil {
			out.Note = withMarker(*in.Note, markerTransferRef, out.TransferRef)
		}
		if err := movRepo.Update(out); err != nil {
			return fmt.Errorf("actualizar transfer_out: %w", err)
		}

		// Replay sin los viejos transfer_in para derivar el abanico nuevo.
		segments, err := simulateOutSegments(movRepo, lotRepo, locationRepo, product, out.ID)
		if err != nil {
			return err
		}
		for _, seg := range segments {
			lot := &entity.InventoryLot{UnitCost: seg.UnitCost, ReceivedAt: seg.ReceivedAt}
			if err := createTransferIn(movRepo, lotRepo, out, to, product,
				consumedSegment{Lot: lot, Quantity: seg.Quantity}, userID); err != nil {
				return err
			}
		}
		if err := rebuildProduct(movRepo, lotRepo, allocRepo, locationRepo, product, nil); err != nil {
			return err
		}

		result.Ref = out.TransferRef
		line := TransferLineResult{
			SKU:           product.SKU,
			Quantity:      out.Quantity.Neg(),
			OutMovementID: out.ID,
		}
		newIns, err := movRepo.ListTransferIns(businessID, out.ID)
		if err != nil {
			return err
		}
		for _, inMv := range newIns {
			line.InMovementIDs = append(line.InMovementIDs, inMv.ID)
		}
		result.Lines = []TransferLineResult{line}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("movement_id", in.MovementID).
		Msg("traslado actualizado")
	return result, nil
}

// DeleteTransfer elimina el traslado completo (out + ins) y reconstruye el
// producto. Borrar solo una pata dejaría el libro descuadrado.
func (uc *LedgerUseCase) DeleteTransfer(ctx context.Context, businessID string, movementID int64) error {
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		lotRepo repository.InventoryLotRepository,
		allocRepo repository.MovementAllocationRepository,
		locationRepo repository.LocationRepository,
		productRepo repository.ProductRepository,
	) error {
		out, ins, err := resolveTransfer(movRepo, businessID, movementID)
		if err != nil {
			return err
		}
		product, err := productRepo.GetByID(businessID, out.ProductID)
		if err != nil {
			return err
		}
		for _, inMv := range ins {
			if err := movRepo.Delete(businessID, inMv.ID); err != nil {
				return fmt.Errorf("borrar transfer_in %d: %w", inMv.ID, err)
			}
		}
		if err := movRepo.Delete(businessID, out.ID); err != nil {
			return fmt.Errorf("borrar transfer_out %d: %w", out.ID, err)
		}
		return rebuildProduct(movRepo, lotRepo, allocRepo, locationRepo, product, nil)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("movement_id", movementID).Msg("traslado eliminado")
	return nil
}

// simulateOutSegments replay puro del producto para recuperar los segmentos
// que consume un transfer_out, sin persistir nada.
func simulateOutSegments(
	movRepo repository.InventoryMovementRepository,
	lotRepo repository.InventoryLotRepository,
	locationRepo repository.LocationRepository,
	product *entity.Product,
	outID int64,
) ([]transferSegment, error) {
	movements, err := movRepo.ListByProduct(product.BusinessID, product.ID)
	if err != nil {
		return nil, err
	}
	locations, err := locationRepo.ListByBusiness(product.BusinessID)
	if err != nil {
		return nil, err
	}
	locationCodes := make(map[string]string, len(locations))
	for _, loc := range locations {
		locationCodes[loc.ID] = loc.Code
	}
	existing, err := lotRepo.ListByProduct(product.BusinessID, product.ID)
	if err != nil {
		return nil, err
	}
	preserved := make(map[int64]string, len(existing))
	for _, lot := range existing {
		preserved[lot.MovementID] = lot.LotCode
	}
	result, err := replayProduct(product, locationCodes, movements, preserved)
	if err != nil {
		return nil, err
	}
	return result.Segments[outID], nil
}

func containsInt64(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
