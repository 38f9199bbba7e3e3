// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// IngestTask represents a document ingestion job: a file that has landed in a
// storage area and still needs text extraction, summarization and indexing.
type IngestTask struct {
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	StorageArea string `json:"storage_area"`
	StoragePath string `json:"storage_path"`
	Kind        string `json:"kind"` // deck | report | email
	UserID      uint   `json:"user_id"`
	IsPublic    bool   `json:"is_public,omitempty"`
	DealID      string `json:"deal_id,omitempty"`
	CompanyID   string `json:"company_id,omitempty"`
}
