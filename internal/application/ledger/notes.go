package ledger

import (
	"fmt"
	"strings"
)

// Marcadores clave=valor embebidos en la nota de los movimientos. Los
// traslados y devoluciones llevan columnas dedicadas, pero el marcador se
// conserva en la nota por legibilidad y como respaldo para datos antiguos.
const (
	markerTransferRef = "ref"
	markerTransferOut = "out_id"
	markerLotCode     = "lot_code"
)

// noteMarker extrae el valor de un marcador "clave=valor" dentro de la nota.
// El valor termina en el primer espacio en blanco. Devuelve "" si no existe.
func noteMarker(note, key string) string {
	prefix := key + "="
	for _, field := range strings.Fields(note) {
		if strings.HasPrefix(field, prefix) {
			return strings.TrimPrefix(field, prefix)
		}
	}
	return ""
}

// withMarker asegura que la nota contenga el marcador "clave=valor",
// agregándolo al final si falta. El valor no debe contener espacios.
func withMarker(note, key, value string) string {
	if value == "" || noteMarker(note, key) == value {
		return note
	}
	marker := fmt.Sprintf("%s=%s", key, value)
	if note == "" {
		return marker
	}
	return note + " " + marker
}
