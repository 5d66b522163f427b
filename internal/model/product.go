package model

import "time"

// Product is a catalog item made by one manufacturer.
type Product struct {
	ID             int64      `json:"id"`
	MPN            *string    `json:"mpn" validate:"required"`
	Name           string     `json:"name" validate:"required"`
	Description    string     `json:"description" validate:"required"`
	IssueDate      *time.Time `json:"issueDate" validate:"required"`
	ManufacturerID *int64     `json:"manufacturer" validate:"required"`
	OwnerID        *int64     `json:"owner" validate:"-"`

	// Manufacturer is populated on reads.
	Manufacturer *ManufacturerRef `json:"-" validate:"-"`
}

// IsOwnedBy reports whether userID owns the product.
func (p *Product) IsOwnedBy(userID int64) bool {
	return p.OwnerID != nil && *p.OwnerID == userID
}
