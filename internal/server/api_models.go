package server

import (
	"github.com/raysh454/crumb/internal/report"
)

// DeleteCookiesRequest selects cookies of the latest scan for deletion.
type DeleteCookiesRequest struct {
	Company  string `json:"company,omitempty" example:"Google"`
	Category string `json:"category,omitempty" example:"advertising"`
}

// Selector converts the request into a report.Selector. An unknown category
// name is a report.ErrInvalidSelector.
func (r DeleteCookiesRequest) Selector() (report.Selector, error) {
	return report.ParseSelector(r.Company, r.Category)
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"no snapshots recorded"`
}
