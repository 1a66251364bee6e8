package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// lotCodeMaxLen límite duro de la columna lot_code.
const lotCodeMaxLen = 48

// openingEpoch fecha centinela para lotes de inventario inicial: garantiza
// que el FIFO los consuma antes que cualquier lote operativo real.
var openingEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// openingNoteMarkers textos en la nota que identifican un ajuste positivo
// como carga de inventario inicial.
var openingNoteMarkers = []string{
	"inventario inicial",
	"inventario físico inicial",
	"initial inventory",
	"opening inventory",
}

// isOpeningNote indica si la nota marca el movimiento como inventario inicial.
func isOpeningNote(note string) bool {
	lowered := strings.ToLower(note)
	for _, marker := range openingNoteMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// lotCodeBase arma la base del código de lote: prefijo + marca de tiempo
// compacta aammddhhmm.
func lotCodeBase(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s", prefix, at.UTC().Format("0601021504"))
}

// letterSuffix sufijo alfabético estilo hoja de cálculo para colisiones:
// 0->A, 25->Z, 26->AA, 27->AB, ...
func letterSuffix(n int) string {
	suffix := ""
	n++
	for n > 0 {
		n--
		suffix = string(rune('A'+n%26)) + suffix
		n /= 26
	}
	return suffix
}

// compactLotCode recorta un código que excede el límite y le añade un hash
// corto del original para conservar unicidad tras el truncado.
func compactLotCode(code string) string {
	if len(code) <= lotCodeMaxLen {
		return code
	}
	sum := sha256.Sum256([]byte(code))
	tag := hex.EncodeToString(sum[:])[:8]
	return code[:lotCodeMaxLen-len(tag)-1] + "-" + tag
}

// uniqueLotCode deriva un código único a partir de la base probando sufijos
// A..Z, AA.. contra el predicado exists.
func uniqueLotCode(base string, exists func(code string) (bool, error)) (string, error) {
	code := compactLotCode(base)
	taken, err := exists(code)
	if err != nil {
		return "", err
	}
	if !taken {
		return code, nil
	}
	for i := 0; ; i++ {
		candidate := compactLotCode(fmt.Sprintf("%s-%s", base, letterSuffix(i)))
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}
