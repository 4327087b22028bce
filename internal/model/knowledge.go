package model

import "time"

// KnowledgeRecord is one ingested document in the retrieval engine.
// Chunks concatenate back to Content up to whitespace normalization.
type KnowledgeRecord struct {
	ID       string            `json:"id"`
	Filename string            `json:"filename"`
	Content  string            `json:"content"`
	Chunks   []string          `json:"chunks"`
	Metadata KnowledgeMetadata `json:"metadata"`
}

// KnowledgeMetadata describes an ingested document.
type KnowledgeMetadata struct {
	Category   string    `json:"category"`
	Tags       []string  `json:"tags"`
	Priority   string    `json:"priority"`
	UploadedAt time.Time `json:"uploaded_at"`
	FileSize   int64     `json:"file_size"`
	FileType   string    `json:"file_type"`
	UploadedBy string    `json:"uploaded_by"`
}

// KnowledgeSearchResult pairs a record with its relevance score in [0,1].
type KnowledgeSearchResult struct {
	Record         *KnowledgeRecord `json:"record"`
	RelevanceScore float64          `json:"relevance_score"`
}

// KnowledgeStats is an on-demand aggregation over the collection.
type KnowledgeStats struct {
	TotalDocuments int            `json:"total_documents"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	Categories     map[string]int `json:"categories"`
	RecentUploads  int            `json:"recent_uploads"`
}

// IngestOutcome is the per-file result of a batch ingestion.
type IngestOutcome struct {
	Filename string `json:"filename"`
	ID       string `json:"id,omitempty"`
	Chunks   int    `json:"chunks,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}
