package page

// Params normaliza la paginación 1-indexada que usan todos los listados.
type Params struct {
	Page int
	Size int
}

// Normalize aplica los límites del servicio: página mínima 1, tamaño
// acotado a [1, maxSize] con defaultSize cuando no se pide nada.
func Normalize(p Params, defaultSize, maxSize int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if maxSize > 0 && p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}

// Offset devuelve el desplazamiento 0-indexado equivalente.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Slice recorta [offset, offset+size) contra un total conocido.
// Fuera de rango devuelve lo..lo (lista vacía), nunca un error.
func (p Params) Slice(total int) (lo, hi int) {
	lo = p.Offset()
	if lo > total {
		lo = total
	}
	hi = lo + p.Size
	if hi > total {
		hi = total
	}
	return lo, hi
}
