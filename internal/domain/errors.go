package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los casos de uso traducen errores de bajo nivel a esta taxonomía antes de
// devolverlos a la capa HTTP.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrRecipeNotFound    = errors.New("el producto no tiene receta (BOM) activa")
	ErrCyclicBOM         = errors.New("la receta contiene un ciclo")
	ErrInsufficientStock = errors.New("stock disponible insuficiente")
	// ErrInsufficientBatchStock indica que la suma de remanentes por lote no
	// alcanza la cantidad pedida aunque on_hand diga lo contrario: los lotes
	// se desincronizaron del registro agregado (error de integridad, no un
	// stock-out normal).
	ErrInsufficientBatchStock = errors.New("lotes insuficientes: integridad de inventario comprometida")
	// ErrVersionConflict es el fallo crudo de un write optimista (CAS); se
	// reintenta de forma acotada y, agotados los intentos, se traduce a
	// ErrConcurrentModification.
	ErrVersionConflict        = errors.New("conflicto de versión en escritura optimista")
	ErrConcurrentModification = errors.New("modificación concurrente: reintentos agotados")
	ErrTimeout                = errors.New("operación cancelada por deadline")
	// ErrInvalidState: el ticket no está Activo (doble release, commit tras
	// release, etc.). Nunca es un no-op silencioso.
	ErrInvalidState = errors.New("el ticket no admite esa transición de estado")
)
