// Package domain holds the property catalog's domain types.
package domain

// Status is a property's availability status.
type Status string

const (
	StatusDisponivel Status = "DISPONIVEL"
	StatusVendido    Status = "VENDIDO"
	StatusAlugado    Status = "ALUGADO"
)

// IsKnownStatus reports whether s is a valid property status.
func IsKnownStatus(s Status) bool {
	switch s {
	case StatusDisponivel, StatusVendido, StatusAlugado:
		return true
	}
	return false
}

// Unavailable reports whether a property can no longer anchor a new
// negotiation.
func (s Status) Unavailable() bool {
	return s == StatusVendido || s == StatusAlugado
}

// Category is the transaction type a property is listed for.
type Category string

const (
	CategoryVenda   Category = "VENDA"
	CategoryLocacao Category = "LOCACAO"
)

// IsKnownCategory reports whether c is a valid listing category.
func IsKnownCategory(c Category) bool {
	return c == CategoryVenda || c == CategoryLocacao
}

// ClosedStatus returns the availability status a property assumes when a
// negotiation over it closes: sold listings become VENDIDO, rentals ALUGADO.
func (c Category) ClosedStatus() Status {
	if c == CategoryLocacao {
		return StatusAlugado
	}
	return StatusVendido
}
