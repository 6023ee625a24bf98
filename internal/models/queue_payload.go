package models

// OcrQueuePayload is the job payload schema shared by producer and worker.
// Field names are a wire contract; do not rename.
type OcrQueuePayload struct {
	JobID      string `json:"jobId"`
	InvoiceID  string `json:"invoiceId"`
	FilePath   string `json:"filePath"`
	BusinessID string `json:"businessId"`
	RequestID  string `json:"requestId"`
}
