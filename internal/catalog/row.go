// Package catalog provides access to AHS (Analisa Harga Satuan) catalog
// rows, the unit-price-analysis records that job descriptions are matched
// against. Repositories load rows from CSV files or memory and expose the
// bounded read operations the matching pipeline depends on.
package catalog

// Row is a single catalog entry: a standardized construction work item
// identified by a code and a descriptive name.
type Row struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
