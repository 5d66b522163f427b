package dto

import (
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/service"
)

const manufacturerContext = "/api/contexts/Manufacturer"

// ManufacturerMember is a manufacturer as listed in a collection.
type ManufacturerMember struct {
	IRI         string  `json:"@id"`
	Type        string  `json:"@type"`
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CountryCode string  `json:"countryCode"`
	ListDate    *string `json:"listDate"`
}

// ManufacturerResponse is the item document of a manufacturer.
type ManufacturerResponse struct {
	Context string `json:"@context"`
	ManufacturerMember
	Products []string `json:"products"`
}

// ToManufacturerResponse converts a Manufacturer model to its item document.
func ToManufacturerResponse(m *model.Manufacturer) *ManufacturerResponse {
	products := make([]string, len(m.ProductIDs))
	for i, id := range m.ProductIDs {
		products[i] = ProductIRI(id)
	}
	return &ManufacturerResponse{
		Context:            manufacturerContext,
		ManufacturerMember: *toManufacturerMember(m),
		Products:           products,
	}
}

func toManufacturerMember(m *model.Manufacturer) *ManufacturerMember {
	return &ManufacturerMember{
		IRI:         ManufacturerIRI(m.ID),
		Type:        "Manufacturer",
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CountryCode: m.CountryCode,
		ListDate:    FormatDate(m.ListDate),
	}
}

// manufacturerFilters maps query variables to filtered properties.
var manufacturerFilters = map[string]string{
	"name":                     "name",
	"description":              "description",
	"countryCode":              "countryCode",
	"manufacturer.countryCode": "countryCode",
	"order[listDate]":          "listDate",
	"order[issueDate]":         "listDate",
}

// ManufacturerFilterVariables lists the query variables accepted by the
// manufacturer collection, in display order.
var ManufacturerFilterVariables = []string{
	"name",
	"description",
	"countryCode",
	"manufacturer.countryCode",
	"order[listDate]",
	"order[issueDate]",
}

// ToManufacturerCollection renders one page of manufacturers.
func ToManufacturerCollection(list *service.ManufacturerList, view *CollectionView) *CollectionResponse[*ManufacturerMember] {
	members := make([]*ManufacturerMember, len(list.Items))
	for i, m := range list.Items {
		members[i] = toManufacturerMember(m)
	}
	return &CollectionResponse[*ManufacturerMember]{
		Context:    manufacturerContext,
		ID:         ManufacturersPath,
		Type:       TypeCollection,
		Member:     members,
		TotalItems: list.Page.TotalItems,
		View:       view,
		Search:     NewSearchTemplate(ManufacturersPath, ManufacturerFilterVariables, manufacturerFilters),
	}
}

// DecodeManufacturerWrite decodes a manufacturer body. id and products are
// not writable and are ignored.
func DecodeManufacturerWrite(body []byte) (service.ManufacturerInput, error) {
	var in service.ManufacturerInput

	fields, err := decodeObject(body)
	if err != nil {
		return in, err
	}

	if in.Name, err = fields.stringField("name"); err != nil {
		return in, err
	}
	if in.Description, err = fields.stringField("description"); err != nil {
		return in, err
	}
	if in.CountryCode, err = fields.stringField("countryCode"); err != nil {
		return in, err
	}
	if in.ListDate.Set, in.ListDate.Value, err = fields.nullableDate("listDate"); err != nil {
		return in, err
	}

	return in, nil
}
