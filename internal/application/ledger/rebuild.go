package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// transferSegment describe una porción de stock consumida por un transfer_out:
// costo y antigüedad del lote de origen más la cantidad tomada. Los
// transfer_in del mismo traslado reconstruyen sus lotes a partir de estos
// segmentos, preservando costo y received_at a través de la frontera.
type transferSegment struct {
	UnitCost   decimal.Decimal
	ReceivedAt time.Time
	Quantity   decimal.Decimal
}

// replayAllocation asignación derivada durante el replay. Referencia el lote
// por puntero porque los IDs recién existen después de persistir.
type replayAllocation struct {
	MovementID int64
	Lot        *entity.InventoryLot
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
}

// replayResult estado derivado completo de un producto tras el replay.
type replayResult struct {
	Lots        []*entity.InventoryLot
	Allocations []replayAllocation
	// Segments consumos de cada transfer_out, indexados por id del movimiento.
	Segments map[int64][]transferSegment
}

// replayState inventario en memoria durante el replay: lotes por ubicación,
// en el mismo orden FIFO que usa la base.
type replayState struct {
	product       *entity.Product
	locationCodes map[string]string // id -> código, para diagnósticos
	byLocation    map[string][]*entity.InventoryLot
	usedCodes     map[string]bool
	result        *replayResult
}

func (st *replayState) locationCode(locationID string) string {
	if code, ok := st.locationCodes[locationID]; ok {
		return code
	}
	return locationID
}

// addLot incorpora un lote nuevo manteniendo la lista de su ubicación en
// orden (received_at ASC, orden de llegada como desempate).
func (st *replayState) addLot(lot *entity.InventoryLot) {
	st.result.Lots = append(st.result.Lots, lot)
	lots := append(st.byLocation[lot.LocationID], lot)
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].ReceivedAt.Before(lots[j].ReceivedAt)
	})
	st.byLocation[lot.LocationID] = lots
}

// consume agota lotes FIFO de la ubicación del movimiento y devuelve los
// segmentos consumidos. Si el stock derivado no alcanza, el replay entero
// falla con RebuildConflictError.
func (st *replayState) consume(mv *entity.InventoryMovement, quantity decimal.Decimal) ([]transferSegment, error) {
	remaining := quantity
	var segments []transferSegment
	for _, lot := range st.byLocation[mv.LocationID] {
		if remaining.IsZero() {
			break
		}
		if !lot.QtyRemaining.IsPositive() {
			continue
		}
		take := decimal.Min(lot.QtyRemaining, remaining)
		lot.QtyRemaining = lot.QtyRemaining.Sub(take)
		st.result.Allocations = append(st.result.Allocations, replayAllocation{
			MovementID: mv.ID,
			Lot:        lot,
			Quantity:   take,
			UnitCost:   lot.UnitCost,
		})
		segments = append(segments, transferSegment{
			UnitCost:   lot.UnitCost,
			ReceivedAt: lot.ReceivedAt,
			Quantity:   take,
		})
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		return nil, &domain.RebuildConflictError{
			SKU:          st.product.SKU,
			MovementID:   mv.ID,
			MovementType: string(mv.Type),
			LocationCode: st.locationCode(mv.LocationID),
			MovementDate: mv.MovementDate,
			Missing:      remaining,
		}
	}
	return segments, nil
}

// lotCodeFor devuelve el código preservado del movimiento o genera uno nuevo
// único dentro del replay.
func (st *replayState) lotCodeFor(mv *entity.InventoryMovement, preserved map[int64]string, prefix string) string {
	if code, ok := preserved[mv.ID]; ok && code != "" {
		st.usedCodes[code] = true
		return code
	}
	code, _ := uniqueLotCode(lotCodeBase(prefix, mv.MovementDate), func(candidate string) (bool, error) {
		return st.usedCodes[candidate], nil
	})
	st.usedCodes[code] = true
	return code
}

// replayProduct reconstruye lotes y asignaciones de un producto como función
// pura de su lista de movimientos, ordenada por (movement_date, id). No toca
// repositorios: la persistencia del resultado es responsabilidad del llamador,
// dentro de la misma transacción que disparó el rebuild.
//
// preservedCodes conserva los códigos de lote ya emitidos (movimiento -> código)
// para que reconstruir sea idempotente y no invalide etiquetas impresas.
func replayProduct(
	product *entity.Product,
	locationCodes map[string]string,
	movements []*entity.InventoryMovement,
	preservedCodes map[int64]string,
) (*replayResult, error) {
	ordered := make([]*entity.InventoryMovement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].MovementDate.Equal(ordered[j].MovementDate) {
			return ordered[i].MovementDate.Before(ordered[j].MovementDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	st := &replayState{
		product:       product,
		locationCodes: locationCodes,
		byLocation:    make(map[string][]*entity.InventoryLot),
		usedCodes:     make(map[string]bool),
		result: &replayResult{
			Segments: make(map[int64][]transferSegment),
		},
	}
	for _, code := range preservedCodes {
		st.usedCodes[code] = true
	}
	// Cola de segmentos pendientes por transfer_out: cada transfer_in del
	// mismo traslado toma el siguiente segmento disponible.
	pending := make(map[int64][]transferSegment)

	for _, mv := range ordered {
		switch mv.Type {
		case entity.MovementPurchase:
			st.addLot(newReplayLot(mv, st.lotCodeFor(mv, preservedCodes, product.SKU), mv.MovementDate))

		case entity.MovementAdjustment:
			if mv.Quantity.IsPositive() {
				receivedAt := mv.MovementDate
				if isOpeningNote(mv.Note) {
					receivedAt = openingEpoch
				}
				st.addLot(newReplayLot(mv, st.lotCodeFor(mv, preservedCodes, "ADJ-"+product.SKU), receivedAt))
				continue
			}
			if _, err := st.consume(mv, mv.Quantity.Neg()); err != nil {
				return nil, err
			}

		case entity.MovementSale:
			if _, err := st.consume(mv, mv.Quantity.Neg()); err != nil {
				return nil, err
			}

		case entity.MovementTransferOut:
			segments, err := st.consume(mv, mv.Quantity.Neg())
			if err != nil {
				return nil, err
			}
			st.result.Segments[mv.ID] = segments
			pending[mv.ID] = segments

		case entity.MovementTransferIn:
			lot := newReplayLot(mv, st.lotCodeFor(mv, preservedCodes, product.SKU), mv.MovementDate)
			if seg, ok := popSegment(pending, transferOutID(mv), mv.Quantity); ok {
				// Hereda costo y antigüedad del lote de origen.
				lot.UnitCost = seg.UnitCost
				lot.ReceivedAt = seg.ReceivedAt
			}
			st.addLot(lot)

		case entity.MovementReturnSupplier:
			if err := st.consumeFromLot(mv); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("tipo de movimiento desconocido %q en movimiento %d: %w",
				mv.Type, mv.ID, domain.ErrConflict)
		}
	}
	return st.result, nil
}

// consumeFromLot descuenta una devolución a proveedor de su lote puntual,
// identificado por el marcador lot_code de la nota. Una devolución sin
// marcador no se puede reatribuir: adivinar un lote por orden FIFO
// cambiaría el costo histórico, así que el replay se detiene.
func (st *replayState) consumeFromLot(mv *entity.InventoryMovement) error {
	code := noteMarker(mv.Note, markerLotCode)
	qty := mv.Quantity.Neg()
	if code != "" {
		for _, lot := range st.byLocation[mv.LocationID] {
			if lot.LotCode != code {
				continue
			}
			if lot.QtyRemaining.LessThan(qty) {
				return &domain.RebuildConflictError{
					SKU:          st.product.SKU,
					MovementID:   mv.ID,
					MovementType: string(mv.Type),
					LocationCode: st.locationCode(mv.LocationID),
					MovementDate: mv.MovementDate,
					Missing:      qty.Sub(lot.QtyRemaining),
					LotCode:      code,
				}
			}
			lot.QtyRemaining = lot.QtyRemaining.Sub(qty)
			st.result.Allocations = append(st.result.Allocations, replayAllocation{
				MovementID: mv.ID,
				Lot:        lot,
				Quantity:   qty,
				UnitCost:   lot.UnitCost,
			})
			return nil
		}
		return &domain.RebuildConflictError{
			SKU:          st.product.SKU,
			MovementID:   mv.ID,
			MovementType: string(mv.Type),
			LocationCode: st.locationCode(mv.LocationID),
			MovementDate: mv.MovementDate,
			Missing:      qty,
			LotCode:      code,
		}
	}
	return &domain.RebuildConflictError{
		SKU:          st.product.SKU,
		MovementID:   mv.ID,
		MovementType: string(mv.Type),
		LocationCode: st.locationCode(mv.LocationID),
		MovementDate: mv.MovementDate,
		Missing:      qty,
	}
}

// newReplayLot lote derivado de un movimiento de entrada.
func newReplayLot(mv *entity.InventoryMovement, code string, receivedAt time.Time) *entity.InventoryLot {
	unitCost := decimal.Zero
	if mv.UnitCost != nil {
		unitCost = *mv.UnitCost
	}
	return &entity.InventoryLot{
		BusinessID:   mv.BusinessID,
		MovementID:   mv.ID,
		ProductID:    mv.ProductID,
		LocationID:   mv.LocationID,
		LotCode:      code,
		ReceivedAt:   receivedAt,
		UnitCost:     unitCost,
		QtyReceived:  mv.Quantity,
		QtyRemaining: mv.Quantity,
	}
}

// transferOutID resuelve el transfer_out de origen de un transfer_in:
// columna dedicada primero, marcador de nota como respaldo legado.
func transferOutID(mv *entity.InventoryMovement) int64 {
	if mv.TransferOutID != nil {
		return *mv.TransferOutID
	}
	if raw := noteMarker(mv.Note, markerTransferOut); raw != "" {
		var id int64
		if _, err := fmt.Sscanf(raw, "%d", &id); err == nil {
			return id
		}
	}
	return 0
}

// popSegment toma segmentos pendientes del transfer_out hasta cubrir la
// cantidad del transfer_in; si alcanza justo un segmento, lo devuelve entero.
// Devuelve false cuando no hay segmentos (datos legados incompletos) y el
// llamador cae al costo y fecha del propio movimiento.
func popSegment(pending map[int64][]transferSegment, outID int64, quantity decimal.Decimal) (transferSegment, bool) {
	if outID == 0 {
		return transferSegment{}, false
	}
	queue := pending[outID]
	if len(queue) == 0 {
		return transferSegment{}, false
	}
	head := queue[0]
	if head.Quantity.GreaterThan(quantity) {
		// Segmento más grande que el in: se parte y el resto queda en cola.
		pending[outID][0].Quantity = head.Quantity.Sub(quantity)
		head.Quantity = quantity
		return head, true
	}
	pending[outID] = queue[1:]
	return head, true
}

// rebuildProduct borra y reconstruye lotes y asignaciones del producto dentro
// de la transacción en curso. codeOverrides fuerza códigos puntuales
// (movimiento -> código) por encima de los preservados, para ediciones de
// compra que cambian el código del lote.
func rebuildProduct(
	movRepo repository.InventoryMovementRepository,
	lotRepo repository.InventoryLotRepository,
	allocRepo repository.MovementAllocationRepository,
	locationRepo repository.LocationRepository,
	product *entity.Product,
	codeOverrides map[int64]string,
) error {
	existing, err := lotRepo.ListByProduct(product.BusinessID, product.ID)
	if err != nil {
		return fmt.Errorf("listar lotes existentes: %w", err)
	}
	preserved := make(map[int64]string, len(existing))
	for _, lot := range existing {
		preserved[lot.MovementID] = lot.LotCode
	}
	for movementID, code := range codeOverrides {
		if code == "" {
			delete(preserved, movementID)
			continue
		}
		preserved[movementID] = code
	}

	if err := allocRepo.DeleteByProduct(product.BusinessID, product.ID); err != nil {
		return fmt.Errorf("borrar asignaciones: %w", err)
	}
	if err := lotRepo.DeleteByProduct(product.BusinessID, product.ID); err != nil {
		return fmt.Errorf("borrar lotes: %w", err)
	}

	movements, err := movRepo.ListByProduct(product.BusinessID, product.ID)
	if err != nil {
		return fmt.Errorf("listar movimientos: %w", err)
	}
	locations, err := locationRepo.ListByBusiness(product.BusinessID)
	if err != nil {
		return fmt.Errorf("listar ubicaciones: %w", err)
	}
	locationCodes := make(map[string]string, len(locations))
	for _, loc := range locations {
		locationCodes[loc.ID] = loc.Code
	}

	result, err := replayProduct(product, locationCodes, movements, preserved)
	if err != nil {
		return err
	}
	for _, lot := range result.Lots {
		if err := lotRepo.Create(lot); err != nil {
			return fmt.Errorf("persistir lote %s: %w", lot.LotCode, err)
		}
	}
	for _, alloc := range result.Allocations {
		if err := allocRepo.Create(&entity.MovementAllocation{
			MovementID: alloc.MovementID,
			LotID:      alloc.Lot.ID,
			Quantity:   alloc.Quantity,
			UnitCost:   alloc.UnitCost,
		}); err != nil {
			return fmt.Errorf("persistir asignación: %w", err)
		}
	}
	return nil
}
