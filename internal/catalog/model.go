package catalog

import (
	"encoding/json"
)

// Product models a single catalog entry as served by the remote API.
type Product struct {
	ID        string  `json:"id" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Brand     string  `json:"brand"`
	Category  string  `json:"category"`
	Price     float64 `json:"price" validate:"gte=0"`
	Active    *bool   `json:"active" validate:"required"`
	CreatedAt int64   `json:"createdAt"` // Unix timestamp in milliseconds
}

// ListMeta echoes the server-side pagination metadata. It is kept for display
// purposes only; client-side pagination never trusts it.
type ListMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// ResultSet is one cached fetch result: the ordered products returned by the
// remote plus the response metadata.
type ResultSet struct {
	Products []Product `json:"products"`
	Meta     ListMeta  `json:"meta"`
}

// Bulk operations accepted by POST /products/bulk.
const (
	BulkDelete     = "delete"
	BulkActivate   = "activate"
	BulkDeactivate = "deactivate"
	BulkDiscount   = "discount"
)

// BulkRequest is the payload for a single bulk operation over many products.
type BulkRequest struct {
	ProductIDs         []string `json:"product_ids" validate:"required,min=1"`
	Operation          string   `json:"operation" validate:"required,oneof=delete activate deactivate discount"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty" validate:"omitempty,gt=0,lte=100"`
}

// ListEnvelope is the remote response shape for GET /products.
type ListEnvelope struct {
	Data []Product `json:"data" validate:"required,dive"`
	Meta ListMeta  `json:"meta"`
}

// MessageEnvelope is the remote response shape for successful mutations.
type MessageEnvelope struct {
	Message string   `json:"message"`
	Data    *Product `json:"data,omitempty"`
}

// ErrorEnvelope is the remote response shape for failed requests,
// including 422 validation failures with per-field errors.
type ErrorEnvelope struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// ApplyDefaults sets fallback values after decode.
func (r *ResultSet) ApplyDefaults() {
	if r.Products == nil {
		r.Products = []Product{}
	}
	for i := range r.Products {
		r.Products[i].applyDefaults()
	}
}

func (p *Product) applyDefaults() {
	if p.Active == nil {
		v := false
		p.Active = &v
	}
}

// Clone deep-copies the result set so cache and callers never share slices.
func (r ResultSet) Clone() (ResultSet, error) {
	bytes, err := json.Marshal(r)
	if err != nil {
		return ResultSet{}, err
	}
	var copy ResultSet
	if err := json.Unmarshal(bytes, &copy); err != nil {
		return ResultSet{}, err
	}
	return copy, nil
}

// IsActive reports the product's active flag with a nil-safe default.
func (p Product) IsActive() bool {
	return p.Active != nil && *p.Active
}
