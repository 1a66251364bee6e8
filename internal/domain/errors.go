package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
)

// StockConflictError: stock insuficiente en una ubicación, con el detalle
// disponible vs solicitado que el operador necesita para reconciliar.
type StockConflictError struct {
	SKU          string
	LocationCode string
	Available    decimal.Decimal
	Requested    decimal.Decimal
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock insuficiente de %s en %s: disponible %s, solicitado %s",
		e.SKU, e.LocationCode, e.Available.String(), e.Requested.String())
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *StockConflictError) Unwrap() error { return ErrInsufficientStock }

// RebuildConflictError: el replay del historial de un producto no pudo
// completarse (un consumo quedó sin stock, o un lote referenciado no existe).
// Es el diagnóstico principal ante historiales editados de forma inconsistente:
// el motor se niega a adivinar y reporta exactamente dónde falló.
type RebuildConflictError struct {
	SKU          string
	MovementID   int64
	MovementType string
	LocationCode string
	MovementDate time.Time
	Missing      decimal.Decimal // cantidad que no pudo cubrirse
	LotCode      string          // lote específico no encontrado (return_supplier)
}

func (e *RebuildConflictError) Error() string {
	if e.LotCode != "" {
		return fmt.Sprintf(
			"rebuild de %s: movimiento %d (%s) en %s del %s referencia el lote %q, que no existe en esa ubicación",
			e.SKU, e.MovementID, e.MovementType, e.LocationCode,
			e.MovementDate.Format("2006-01-02"), e.LotCode)
	}
	return fmt.Sprintf(
		"rebuild de %s: movimiento %d (%s) en %s del %s no pudo cubrirse: faltan %s unidades",
		e.SKU, e.MovementID, e.MovementType, e.LocationCode,
		e.MovementDate.Format("2006-01-02"), e.Missing.String())
}

func (e *RebuildConflictError) Unwrap() error { return ErrConflict }

// TransferLinkError: no se pudieron descubrir los transfer_in asociados a un
// transfer_out (datos legados sin marcador de enlace). Lista cada pase de
// emparejamiento intentado para que la revisión manual sepa qué se buscó.
type TransferLinkError struct {
	OutMovementID int64
	Passes        []string
	Detail        string
}

func (e *TransferLinkError) Error() string {
	msg := fmt.Sprintf("no se pudieron enlazar los transfer_in del transfer_out %d (pases intentados: %s)",
		e.OutMovementID, strings.Join(e.Passes, ", "))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *TransferLinkError) Unwrap() error { return ErrConflict }
