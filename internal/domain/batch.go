package domain

import "time"

type BatchStatus string

const (
	BatchProcessing BatchStatus = "processing"
	BatchPartial    BatchStatus = "partial"
	BatchCompleted  BatchStatus = "completed"
)

// ImportBatch groups the transactions persisted from one uploaded file.
type ImportBatch struct {
	ID                    string      `json:"id"`
	CompanyID             string      `json:"company_id"`
	Provider              Provider    `json:"provider"`
	FileName              string      `json:"file_name"`
	TotalTransactions     int         `json:"total_transactions"`
	MatchedTransactions   int         `json:"matched_transactions"`
	UnmatchedTransactions int         `json:"unmatched_transactions"`
	SkippedRows           int         `json:"skipped_rows"`
	TotalAmount           float64     `json:"total_amount"`
	Currency              string      `json:"currency"`
	PeriodStart           time.Time   `json:"period_start"`
	PeriodEnd             time.Time   `json:"period_end"`
	Status                BatchStatus `json:"status"`
	ImportedBy            string      `json:"imported_by,omitempty"`
	CreatedAt             time.Time   `json:"created_at"`
}
