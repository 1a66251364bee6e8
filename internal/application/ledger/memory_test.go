package ledger_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/application/ledger"
	"github.com/tu-usuario/almacen-ledger/internal/domain"
	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria de los repositorios del libro. Comparten un memStore y
// replican la semántica de los repos de postgres: secuencias para los IDs,
// código de lote único por negocio, orden FIFO (received_at, id) y orden
// autoritativo de movimientos (movement_date, id).
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	seq       int64
	movements map[int64]*entity.InventoryMovement
	lots      map[int64]*entity.InventoryLot
	allocs    map[int64]*entity.MovementAllocation
	locations map[string]*entity.Location
	products  map[string]*entity.Product
}

func newMemStore() *memStore {
	return &memStore{
		movements: make(map[int64]*entity.InventoryMovement),
		lots:      make(map[int64]*entity.InventoryLot),
		allocs:    make(map[int64]*entity.MovementAllocation),
		locations: make(map[string]*entity.Location),
		products:  make(map[string]*entity.Product),
	}
}

func (s *memStore) nextID() int64 {
	s.seq++
	return s.seq
}

// ──────────────────────────────────────────────────────────────────────────────
// InventoryMovementRepository
// ──────────────────────────────────────────────────────────────────────────────

type memMovementRepo struct{ store *memStore }

var _ repository.InventoryMovementRepository = (*memMovementRepo)(nil)

func (r *memMovementRepo) Create(mv *entity.InventoryMovement) error {
	mv.ID = r.store.nextID()
	mv.CreatedAt = time.Now().UTC()
	clone := *mv
	r.store.movements[mv.ID] = &clone
	return nil
}

func (r *memMovementRepo) GetByID(businessID string, id int64) (*entity.InventoryMovement, error) {
	mv, ok := r.store.movements[id]
	if !ok || mv.BusinessID != businessID {
		return nil, domain.ErrNotFound
	}
	clone := *mv
	return &clone, nil
}

func (r *memMovementRepo) Update(mv *entity.InventoryMovement) error {
	if _, ok := r.store.movements[mv.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *mv
	r.store.movements[mv.ID] = &clone
	return nil
}

func (r *memMovementRepo) Delete(businessID string, id int64) error {
	mv, ok := r.store.movements[id]
	if !ok || mv.BusinessID != businessID {
		return domain.ErrNotFound
	}
	delete(r.store.movements, id)
	// Mismo efecto que el ON DELETE CASCADE del esquema: caen los lotes
	// nacidos del movimiento y las asignaciones que tocan al movimiento
	// o a esos lotes.
	dropped := make(map[int64]bool)
	for lotID, lot := range r.store.lots {
		if lot.MovementID == id {
			delete(r.store.lots, lotID)
			dropped[lotID] = true
		}
	}
	for allocID, alloc := range r.store.allocs {
		if alloc.MovementID == id || dropped[alloc.LotID] {
			delete(r.store.allocs, allocID)
		}
	}
	return nil
}

func (r *memMovementRepo) list(filter func(*entity.InventoryMovement) bool) []*entity.InventoryMovement {
	var out []*entity.InventoryMovement
	for _, mv := range r.store.movements {
		if filter(mv) {
			clone := *mv
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memMovementRepo) ListByProduct(businessID, productID string) ([]*entity.InventoryMovement, error) {
	out := r.list(func(mv *entity.InventoryMovement) bool {
		return mv.BusinessID == businessID && mv.ProductID == productID
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].MovementDate.Equal(out[j].MovementDate) {
			return out[i].MovementDate.Before(out[j].MovementDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memMovementRepo) ListTransferIns(businessID string, outID int64) ([]*entity.InventoryMovement, error) {
	return r.list(func(mv *entity.InventoryMovement) bool {
		return mv.BusinessID == businessID && mv.Type == entity.MovementTransferIn &&
			mv.TransferOutID != nil && *mv.TransferOutID == outID
	}), nil
}

func (r *memMovementRepo) SearchTransferInsByNote(businessID, marker string) ([]*entity.InventoryMovement, error) {
	return r.list(func(mv *entity.InventoryMovement) bool {
		return mv.BusinessID == businessID && mv.Type == entity.MovementTransferIn &&
			strings.Contains(mv.Note, marker)
	}), nil
}

func (r *memMovementRepo) ListTransferInCandidates(businessID, productID, locationID string, from, to time.Time) ([]*entity.InventoryMovement, error) {
	return r.list(func(mv *entity.InventoryMovement) bool {
		return mv.BusinessID == businessID && mv.Type == entity.MovementTransferIn &&
			mv.ProductID == productID &&
			(locationID == "" || mv.LocationID == locationID) &&
			!mv.MovementDate.Before(from) && !mv.MovementDate.After(to)
	}), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// InventoryLotRepository + MovementAllocationRepository
// ──────────────────────────────────────────────────────────────────────────────

type memLotRepo struct{ store *memStore }

var _ repository.InventoryLotRepository = (*memLotRepo)(nil)

func (r *memLotRepo) Create(lot *entity.InventoryLot) error {
	for _, existing := range r.store.lots {
		if existing.BusinessID == lot.BusinessID && existing.LotCode == lot.LotCode {
			return domain.ErrDuplicate
		}
	}
	lot.ID = r.store.nextID()
	clone := *lot
	r.store.lots[lot.ID] = &clone
	return nil
}

func (r *memLotRepo) GetByCode(businessID, lotCode string) (*entity.InventoryLot, error) {
	for _, lot := range r.store.lots {
		if lot.BusinessID == businessID && lot.LotCode == lotCode {
			clone := *lot
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memLotRepo) CodeExists(businessID, lotCode string) (bool, error) {
	_, err := r.GetByCode(businessID, lotCode)
	if err == domain.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *memLotRepo) FIFOAvailable(businessID, productID, locationID string) ([]*entity.InventoryLot, error) {
	var out []*entity.InventoryLot
	for _, lot := range r.store.lots {
		if lot.BusinessID == businessID && lot.ProductID == productID &&
			lot.LocationID == locationID && lot.QtyRemaining.IsPositive() {
			clone := *lot
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.Before(out[j].ReceivedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memLotRepo) UpdateRemaining(lotID int64, qtyRemaining decimal.Decimal) error {
	lot, ok := r.store.lots[lotID]
	if !ok {
		return domain.ErrNotFound
	}
	lot.QtyRemaining = qtyRemaining
	return nil
}

func (r *memLotRepo) SumRemaining(businessID, productID, locationID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, lot := range r.store.lots {
		if lot.BusinessID == businessID && lot.ProductID == productID &&
			(locationID == "" || lot.LocationID == locationID) {
			total = total.Add(lot.QtyRemaining)
		}
	}
	return total, nil
}

func (r *memLotRepo) ListByProduct(businessID, productID string) ([]*entity.InventoryLot, error) {
	var out []*entity.InventoryLot
	for _, lot := range r.store.lots {
		if lot.BusinessID == businessID && lot.ProductID == productID {
			clone := *lot
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memLotRepo) DeleteByProduct(businessID, productID string) error {
	for id, lot := range r.store.lots {
		if lot.BusinessID == businessID && lot.ProductID == productID {
			delete(r.store.lots, id)
		}
	}
	return nil
}

func (r *memLotRepo) DeleteByMovement(movementID int64) error {
	for id, lot := range r.store.lots {
		if lot.MovementID == movementID {
			delete(r.store.lots, id)
		}
	}
	return nil
}

type memAllocRepo struct{ store *memStore }

var _ repository.MovementAllocationRepository = (*memAllocRepo)(nil)

func (r *memAllocRepo) Create(alloc *entity.MovementAllocation) error {
	alloc.ID = r.store.nextID()
	clone := *alloc
	r.store.allocs[alloc.ID] = &clone
	return nil
}

func (r *memAllocRepo) ListByMovement(movementID int64) ([]*entity.MovementAllocation, error) {
	var out []*entity.MovementAllocation
	for _, alloc := range r.store.allocs {
		if alloc.MovementID == movementID {
			clone := *alloc
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAllocRepo) DeleteByMovement(movementID int64) error {
	for id, alloc := range r.store.allocs {
		if alloc.MovementID == movementID {
			delete(r.store.allocs, id)
		}
	}
	return nil
}

func (r *memAllocRepo) DeleteByProduct(businessID, productID string) error {
	for id, alloc := range r.store.allocs {
		mv, ok := r.store.movements[alloc.MovementID]
		if ok && mv.BusinessID == businessID && mv.ProductID == productID {
			delete(r.store.allocs, id)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// LocationRepository + ProductRepository
// ──────────────────────────────────────────────────────────────────────────────

type memLocationRepo struct{ store *memStore }

var _ repository.LocationRepository = (*memLocationRepo)(nil)

func (r *memLocationRepo) Create(loc *entity.Location) error {
	for _, existing := range r.store.locations {
		if existing.BusinessID == loc.BusinessID && existing.Code == loc.Code {
			return domain.ErrDuplicate
		}
	}
	if loc.ID == "" {
		loc.ID = fmt.Sprintf("loc-%d", r.store.nextID())
	}
	loc.CreatedAt = time.Now().UTC()
	clone := *loc
	r.store.locations[loc.ID] = &clone
	return nil
}

func (r *memLocationRepo) GetByID(businessID, id string) (*entity.Location, error) {
	loc, ok := r.store.locations[id]
	if !ok || loc.BusinessID != businessID {
		return nil, domain.ErrNotFound
	}
	clone := *loc
	return &clone, nil
}

func (r *memLocationRepo) GetByCode(businessID, code string) (*entity.Location, error) {
	for _, loc := range r.store.locations {
		if loc.BusinessID == businessID && loc.Code == code {
			clone := *loc
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memLocationRepo) ListByBusiness(businessID string) ([]*entity.Location, error) {
	var out []*entity.Location
	for _, loc := range r.store.locations {
		if loc.BusinessID == businessID {
			clone := *loc
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type memProductRepo struct{ store *memStore }

var _ repository.ProductRepository = (*memProductRepo)(nil)

func (r *memProductRepo) Create(p *entity.Product) error {
	for _, existing := range r.store.products {
		if existing.BusinessID == p.BusinessID && existing.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	clone := *p
	r.store.products[p.ID] = &clone
	return nil
}

func (r *memProductRepo) GetByID(businessID, id string) (*entity.Product, error) {
	p, ok := r.store.products[id]
	if !ok || p.BusinessID != businessID {
		return nil, domain.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memProductRepo) GetBySKU(businessID, sku string) (*entity.Product, error) {
	for _, p := range r.store.products {
		if p.BusinessID == businessID && p.SKU == sku {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memProductRepo) Update(p *entity.Product) error {
	if _, ok := r.store.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *p
	r.store.products[p.ID] = &clone
	return nil
}

func (r *memProductRepo) ListByBusiness(businessID string, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.store.products {
		if p.BusinessID == businessID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunner en memoria: sin transacción real, invoca el cierre con los mismos
// repos compartidos.
// ──────────────────────────────────────────────────────────────────────────────

type memTxRunner struct {
	movements *memMovementRepo
	lots      *memLotRepo
	allocs    *memAllocRepo
	locations *memLocationRepo
	products  *memProductRepo
}

var _ ledger.TxRunner = (*memTxRunner)(nil)

func (tx *memTxRunner) Run(_ context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	lotRepo repository.InventoryLotRepository,
	allocRepo repository.MovementAllocationRepository,
	locationRepo repository.LocationRepository,
	productRepo repository.ProductRepository,
) error) error {
	return fn(tx.movements, tx.lots, tx.allocs, tx.locations, tx.products)
}
