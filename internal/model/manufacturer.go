package model

import "time"

// Manufacturer lists products under a country of origin.
type Manufacturer struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description" validate:"required"`
	CountryCode string     `json:"countryCode" validate:"required,max=3"`
	ListDate    *time.Time `json:"listDate" validate:"required"`

	// ProductIDs is filled on item reads only.
	ProductIDs []int64 `json:"-" validate:"-"`
}

// ManufacturerRef is the part of a manufacturer embedded in product reads.
type ManufacturerRef struct {
	ID   int64
	Name string
}
