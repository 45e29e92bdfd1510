package ledger

import "time"

// ExpenseTypeTotal tags manually-entered aggregate expense records
const ExpenseTypeTotal = "total"

// Receipt is a confirmed receipt record. Immutable after creation except for
// deletion; there is no update operation.
type Receipt struct {
	ID         string    `json:"id"`
	ImageData  string    `json:"image_data"` // base64-encoded normalized JPEG
	Price      float64   `json:"price"`
	OCRText    string    `json:"ocr_text"` // diagnostic only
	Pattern    string    `json:"pattern,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expense is a manually-entered expense record. Every submission is additive;
// expenses are never deleted in the observed flow.
type Expense struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// DraftReceipt is the outcome of scanning a capture. It is not persisted; the
// confirmation gate turns it into a Receipt via an explicit create.
type DraftReceipt struct {
	ImageData     string  `json:"image_data"`
	Price         float64 `json:"price"`
	OCRText       string  `json:"ocr_text"`
	Pattern       string  `json:"pattern"`
	Confidence    float64 `json:"confidence"`
	ImageFallback bool    `json:"image_fallback"` // normalizer fell back to the original bytes
}

// Summary holds the derived totals for the analytics view
type Summary struct {
	Revenue      float64 `json:"revenue"`
	Expenses     float64 `json:"expenses"`
	Profit       float64 `json:"profit"`
	Transactions int     `json:"transactions"`
}
