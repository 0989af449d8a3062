package model

// Invoice record status and kind values carried over from the source
// platform's relational model. Extraction always produces active sale
// records; the fields exist so exports keep the original column set.
const (
	InvoiceStatusActive = "ACTIVE"
	InvoiceKindSale     = "SALE"
)

// InvoiceRecord is a heuristically extracted candidate transaction entry
// found inside a data block. Offset is the absolute file offset of the
// candidate. Overlapping candidates are kept as-is: a real record followed
// by incidental digit runs may produce several records for the same bytes.
type InvoiceRecord struct {
	BlockIndex int     `json:"block_index"`
	Offset     int     `json:"offset"`
	Number     string  `json:"number"`
	Series     string  `json:"series"`
	TotalValue float64 `json:"total_value"`
	FinalValue float64 `json:"final_value"`
	Status     string  `json:"status"`
	Kind       string  `json:"kind"`
}

// InvoiceStats summarizes the monetary values of extracted records.
type InvoiceStats struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}
