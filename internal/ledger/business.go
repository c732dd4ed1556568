package ledger

import "time"

// Business holds the per-business accounting settings.
type Business struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	AccountingMethod string    `json:"accounting_method"`
	ChartVersion     int       `json:"chart_version"`
	CreatedAt        time.Time `json:"created_at"`
}
