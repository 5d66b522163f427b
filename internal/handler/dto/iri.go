package dto

import (
	"fmt"
	"strconv"
	"strings"
)

// Resource paths.
const (
	ProductsPath      = "/api/products"
	ManufacturersPath = "/api/manufacturers"
	UsersPath         = "/api/users"
)

// ProductIRI returns the IRI of a product.
func ProductIRI(id int64) string {
	return ProductsPath + "/" + strconv.FormatInt(id, 10)
}

// ManufacturerIRI returns the IRI of a manufacturer.
func ManufacturerIRI(id int64) string {
	return ManufacturersPath + "/" + strconv.FormatInt(id, 10)
}

// ManufacturerProductsPath returns the path of a manufacturer's product
// collection.
func ManufacturerProductsPath(id int64) string {
	return "/api/manufacturer/" + strconv.FormatInt(id, 10) + "/products"
}

// UserIRI returns the IRI of a user.
func UserIRI(id int64) string {
	return UsersPath + "/" + strconv.FormatInt(id, 10)
}

// ParseManufacturerIRI extracts the id from a manufacturer IRI.
func ParseManufacturerIRI(iri string) (int64, error) {
	return parseIRI(iri, ManufacturersPath)
}

func parseIRI(iri, collection string) (int64, error) {
	rest, ok := strings.CutPrefix(iri, collection+"/")
	if !ok {
		return 0, &DecodeError{Message: fmt.Sprintf("Invalid IRI %q.", iri)}
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id < 1 {
		return 0, &DecodeError{Message: fmt.Sprintf("Invalid IRI %q.", iri)}
	}
	return id, nil
}

// ParseID parses a path id. Anything but a positive integer is rejected.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
