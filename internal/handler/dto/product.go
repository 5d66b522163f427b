package dto

import (
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/service"
)

const productContext = "/api/contexts/Product"

// ProductResponse is the product.read representation of a product.
type ProductResponse struct {
	Context      string                `json:"@context,omitempty"`
	ID           string                `json:"@id"`
	Type         string                `json:"@type"`
	MPN          *string               `json:"mpn"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	IssueDate    *string               `json:"issueDate"`
	Manufacturer *ManufacturerEmbedded `json:"manufacturer"`
	Owner        *string               `json:"owner"`
}

// ManufacturerEmbedded is the part of a manufacturer shown inside a product.
type ManufacturerEmbedded struct {
	ID   string `json:"@id"`
	Type string `json:"@type"`
	Name string `json:"name"`
}

// ToProductResponse converts a Product model to its item document.
func ToProductResponse(p *model.Product) *ProductResponse {
	resp := toProductMember(p)
	resp.Context = productContext
	return resp
}

// toProductMember renders a product as a collection member, without
// @context.
func toProductMember(p *model.Product) *ProductResponse {
	resp := &ProductResponse{
		ID:          ProductIRI(p.ID),
		Type:        "Product",
		MPN:         p.MPN,
		Name:        p.Name,
		Description: p.Description,
		IssueDate:   FormatDate(p.IssueDate),
	}
	if p.Manufacturer != nil {
		resp.Manufacturer = &ManufacturerEmbedded{
			ID:   ManufacturerIRI(p.Manufacturer.ID),
			Type: "Manufacturer",
			Name: p.Manufacturer.Name,
		}
	}
	if p.OwnerID != nil {
		owner := UserIRI(*p.OwnerID)
		resp.Owner = &owner
	}
	return resp
}

// ToProductCollection renders one page of products. path is the collection
// IRI without query.
func ToProductCollection(path string, list *service.ProductList, view *CollectionView) *CollectionResponse[*ProductResponse] {
	members := make([]*ProductResponse, len(list.Items))
	for i, p := range list.Items {
		members[i] = toProductMember(p)
	}
	return &CollectionResponse[*ProductResponse]{
		Context:    productContext,
		ID:         path,
		Type:       TypeCollection,
		Member:     members,
		TotalItems: list.Page.TotalItems,
		View:       view,
	}
}

// DecodeProductWrite decodes a product.write body. Attributes outside the
// write group (id, owner) are ignored.
func DecodeProductWrite(body []byte) (service.ProductInput, error) {
	var in service.ProductInput

	fields, err := decodeObject(body)
	if err != nil {
		return in, err
	}

	if in.MPN.Set, in.MPN.Value, err = fields.nullableString("mpn"); err != nil {
		return in, err
	}
	if in.Name, err = fields.stringField("name"); err != nil {
		return in, err
	}
	if in.Description, err = fields.stringField("description"); err != nil {
		return in, err
	}
	if in.IssueDate.Set, in.IssueDate.Value, err = fields.nullableDate("issueDate"); err != nil {
		return in, err
	}

	set, iri, err := fields.nullableString("manufacturer")
	if err != nil {
		return in, &DecodeError{Message: `The type of the "manufacturer" attribute must be "IRI", "` + jsonTypeName(fields["manufacturer"]) + `" given.`}
	}
	if set {
		in.Manufacturer = service.Null[int64]()
		if iri != nil {
			id, err := ParseManufacturerIRI(*iri)
			if err != nil {
				return in, err
			}
			in.Manufacturer = service.Of(id)
		}
	}

	return in, nil
}
