// Package dto provides Data Transfer Objects for API requests and responses.
// Responses are JSON-LD documents using the Hydra vocabulary.
package dto

import (
	"net/url"
	"strconv"
)

// ContentTypeJSONLD is the content type of every catalog response.
const ContentTypeJSONLD = "application/ld+json; charset=utf-8"

// Hydra document types.
const (
	TypeCollection  = "hydra:Collection"
	TypeError       = "hydra:Error"
	TypePartialView = "hydra:PartialCollectionView"
	TypeViolations  = "ConstraintViolationList"

	errorTitle = "An error occurred"
)

// ErrorResponse is a hydra:Error document.
type ErrorResponse struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Title       string `json:"hydra:title"`
	Description string `json:"hydra:description"`
}

// NewErrorResponse builds a hydra:Error with the given description.
func NewErrorResponse(description string) *ErrorResponse {
	return &ErrorResponse{
		Context:     "/api/contexts/Error",
		Type:        TypeError,
		Title:       errorTitle,
		Description: description,
	}
}

// Violation is one entry of a ConstraintViolationList.
type Violation struct {
	PropertyPath string `json:"propertyPath"`
	Message      string `json:"message"`
	Code         string `json:"code"`
}

// ViolationListResponse is returned with 422 when validation fails.
type ViolationListResponse struct {
	Context     string      `json:"@context"`
	Type        string      `json:"@type"`
	Title       string      `json:"hydra:title"`
	Description string      `json:"hydra:description"`
	Violations  []Violation `json:"violations"`
}

// NewViolationListResponse builds a ConstraintViolationList. description is
// the newline-joined "path: message" summary.
func NewViolationListResponse(description string, violations []Violation) *ViolationListResponse {
	if violations == nil {
		violations = []Violation{}
	}
	return &ViolationListResponse{
		Context:     "/api/contexts/" + TypeViolations,
		Type:        TypeViolations,
		Title:       errorTitle,
		Description: description,
		Violations:  violations,
	}
}

// CollectionResponse is a paginated hydra:Collection.
type CollectionResponse[T any] struct {
	Context    string          `json:"@context"`
	ID         string          `json:"@id"`
	Type       string          `json:"@type"`
	Member     []T             `json:"hydra:member"`
	TotalItems int             `json:"hydra:totalItems"`
	View       *CollectionView `json:"hydra:view,omitempty"`
	Search     *SearchTemplate `json:"hydra:search,omitempty"`
}

// CollectionView carries the pagination links of a collection.
type CollectionView struct {
	ID       string `json:"@id"`
	Type     string `json:"@type"`
	First    string `json:"hydra:first"`
	Last     string `json:"hydra:last"`
	Previous string `json:"hydra:previous,omitempty"`
	Next     string `json:"hydra:next,omitempty"`
}

// PageInfo is the pagination state needed to render a view.
type PageInfo struct {
	Number      int
	Last        int
	HasPrevious bool
	HasNext     bool
}

// NewCollectionView builds pagination links for path. query carries the
// request's filters; its page parameter is replaced per link.
func NewCollectionView(path string, query url.Values, page PageInfo) *CollectionView {
	view := &CollectionView{
		ID:    pageURL(path, query, page.Number),
		Type:  TypePartialView,
		First: pageURL(path, query, 1),
		Last:  pageURL(path, query, page.Last),
	}
	if page.HasPrevious {
		view.Previous = pageURL(path, query, page.Number-1)
	}
	if page.HasNext {
		view.Next = pageURL(path, query, page.Number+1)
	}
	return view
}

func pageURL(path string, query url.Values, page int) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return path + "?" + q.Encode()
}

// SearchTemplate is a hydra:IriTemplate describing collection filters.
type SearchTemplate struct {
	Type                   string          `json:"@type"`
	Template               string          `json:"hydra:template"`
	VariableRepresentation string          `json:"hydra:variableRepresentation"`
	Mapping                []SearchMapping `json:"hydra:mapping"`
}

// SearchMapping is one filter variable of a SearchTemplate.
type SearchMapping struct {
	Type     string `json:"@type"`
	Variable string `json:"variable"`
	Property string `json:"property"`
	Required bool   `json:"required"`
}

// NewSearchTemplate describes the query variables accepted by path. Each
// entry of properties maps a query variable to the property it filters.
func NewSearchTemplate(path string, variables []string, properties map[string]string) *SearchTemplate {
	tmpl := &SearchTemplate{
		Type:                   "hydra:IriTemplate",
		VariableRepresentation: "BasicRepresentation",
		Mapping:                make([]SearchMapping, 0, len(variables)),
	}

	vars := ""
	for i, v := range variables {
		if i > 0 {
			vars += ","
		}
		vars += v
		tmpl.Mapping = append(tmpl.Mapping, SearchMapping{
			Type:     "IriTemplateMapping",
			Variable: v,
			Property: properties[v],
		})
	}
	tmpl.Template = path + "{?" + vars + "}"
	return tmpl
}
