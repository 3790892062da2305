// Package api is the fetch gateway for the rental-inventory REST service.
// It exposes typed calls for the paginated list endpoints and the item
// field-update endpoints, and normalizes failures into a small error
// taxonomy (FetchError, DataShapeError).
package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// PageInfo is the pagination envelope common to the list endpoints.
// The server owns the page size; callers never send per_page.
type PageInfo struct {
	Total   int
	PerPage int
	Page    int
}

// Category is one row of the top tree level.
// The server reports per-category item tallies alongside the name.
type Category struct {
	Category              string `json:"category"`
	TotalItems            int    `json:"total_items"`
	ItemsOnContracts      int    `json:"items_on_contracts"`
	ItemsRequiringService int    `json:"items_requiring_service"`
	ItemsAvailable        int    `json:"items_available"`
}

// Validate rejects categories missing the display name. The legacy payloads
// were inconsistent enough that silent defaulting hid real server bugs.
func (c Category) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Category, validation.Required),
		validation.Field(&c.TotalItems, validation.Min(0)),
	)
}

// Subcategory is one row of the second tree level.
type Subcategory struct {
	Subcategory           string `json:"subcategory"`
	TotalItems            int    `json:"total_items"`
	ItemsOnContracts      int    `json:"items_on_contracts"`
	ItemsRequiringService int    `json:"items_requiring_service"`
	ItemsAvailable        int    `json:"items_available"`
}

// Validate rejects subcategories missing the display name.
func (s Subcategory) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Subcategory, validation.Required),
		validation.Field(&s.TotalItems, validation.Min(0)),
	)
}

// CommonName is one row of the third tree level: a product name grouping
// individual tagged items.
type CommonName struct {
	Name             string `json:"name"`
	TotalItems       int    `json:"total_items"`
	ItemsOnContracts int    `json:"items_on_contracts"`
	ItemsInService   int    `json:"items_in_service"`
	ItemsAvailable   int    `json:"items_available"`
}

// Validate rejects common-name rows missing the name field.
func (n CommonName) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Name, validation.Required),
		validation.Field(&n.TotalItems, validation.Min(0)),
	)
}

// Item is one tagged unit of equipment, the leaf tree level.
// All fields arrive as strings; dates are displayed as received.
type Item struct {
	TagID           string `json:"tag_id"`
	CommonName      string `json:"common_name"`
	BinLocation     string `json:"bin_location"`
	Status          string `json:"status"`
	LastContractNum string `json:"last_contract_num"`
	LastScannedDate string `json:"last_scanned_date"`
	Quality         string `json:"quality"`
	Notes           string `json:"notes"`
}

// Validate rejects items missing the tag id, the only key the update
// endpoints accept.
func (i Item) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.TagID, validation.Required),
	)
}

// Field identifies an inline-editable item column. The string value is the
// JSON key used in the update payload.
type Field string

const (
	FieldStatus      Field = "status"
	FieldBinLocation Field = "bin_location"
	FieldQuality     Field = "quality"
	FieldNotes       Field = "notes"
)

// Enumerated option sets for the editable fields. Notes is free text and
// has no option list.
var (
	StatusOptions      = []string{"Ready to Rent", "On Contract", "In Service", "Missing", "Retired"}
	BinLocationOptions = []string{"resale", "sold", "pack", "burst"}
	QualityOptions     = []string{"A", "B", "C", "D"}
)

// Endpoint returns the POST path segment for the field's update endpoint.
func (f Field) Endpoint() string {
	switch f {
	case FieldStatus:
		return "update_status"
	case FieldBinLocation:
		return "update_bin_location"
	case FieldQuality:
		return "update_quality"
	case FieldNotes:
		return "update_notes"
	}
	return ""
}

// Options returns the enumerated domain for the field, or nil for free-text
// fields.
func (f Field) Options() []string {
	switch f {
	case FieldStatus:
		return StatusOptions
	case FieldBinLocation:
		return BinLocationOptions
	case FieldQuality:
		return QualityOptions
	}
	return nil
}

// Label returns the human-readable column label for the field.
func (f Field) Label() string {
	switch f {
	case FieldStatus:
		return "Status"
	case FieldBinLocation:
		return "Bin Location"
	case FieldQuality:
		return "Quality"
	case FieldNotes:
		return "Notes"
	}
	return string(f)
}

// Valid reports whether f is one of the four editable fields.
func (f Field) Valid() bool {
	return f.Endpoint() != ""
}

// EditableFields lists the item columns that accept inline edits, in
// display order.
var EditableFields = []Field{FieldBinLocation, FieldStatus, FieldQuality, FieldNotes}

// Value returns the current value of the field on an item.
func (f Field) Value(it Item) string {
	switch f {
	case FieldStatus:
		return it.Status
	case FieldBinLocation:
		return it.BinLocation
	case FieldQuality:
		return it.Quality
	case FieldNotes:
		return it.Notes
	}
	return ""
}

// Apply returns a copy of the item with the field set to value.
func (f Field) Apply(it Item, value string) Item {
	switch f {
	case FieldStatus:
		it.Status = value
	case FieldBinLocation:
		it.BinLocation = value
	case FieldQuality:
		it.Quality = value
	case FieldNotes:
		it.Notes = value
	}
	return it
}
