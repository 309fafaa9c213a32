package api

import "path/filepath"

// QueryRequest is the body sent to both the streaming and the synchronous
// query endpoints.
type QueryRequest struct {
	Query     string `json:"query"`
	UseRerank bool   `json:"use_rerank"`
	UseLLM    bool   `json:"use_llm"`
	NResults  int    `json:"n_results"`
}

// ResultItem is one ranked search hit. Rank is 1-based and defines the
// display order; the client never re-sorts. Similarity is nil when the
// backend could not compute a score for the record.
type ResultItem struct {
	Rank       int            `json:"rank"`
	Similarity *float64       `json:"similarity"`
	Title      string         `json:"title"`
	Source     string         `json:"source"`
	Snippet    string         `json:"snippet"`
	Document   string         `json:"document"`
	Metadata   map[string]any `json:"metadata"`
}

// SourcePath returns the path of the file backing this result. The backend
// stores it in metadata under source_file; Source is the fallback.
func (r ResultItem) SourcePath() string {
	if p, ok := r.Metadata["source_file"].(string); ok && p != "" {
		return p
	}
	return r.Source
}

// SourceDir returns the directory containing the result's source file.
func (r ResultItem) SourceDir() string {
	p := r.SourcePath()
	if p == "" {
		return ""
	}
	return filepath.Dir(p)
}

// QueryResponse is the synchronous fallback response. The results payload
// of the streaming protocol shares the same shape.
type QueryResponse struct {
	Results      []ResultItem `json:"results"`
	LLMResponse  *string      `json:"llm_response,omitempty"`
	TotalResults int          `json:"total_results"`
}

// Config is the server-side ingestion configuration.
type Config struct {
	KBFolder   string `json:"kb_folder"`
	ChunkSize  int    `json:"chunk_size"`
	Overlap    int    `json:"overlap"`
	BatchSize  int    `json:"batch_size"`
	IngestDocx bool   `json:"ingest_docx"`
}

// DefaultConfig returns the server's documented defaults. Missing fields
// in a loaded config fall back to these.
func DefaultConfig() Config {
	return Config{
		KBFolder:  "kb",
		ChunkSize: 100000,
		Overlap:   200,
		BatchSize: 64,
	}
}

// ConfigUpdate carries only the fields to change; nil fields are left
// untouched by the server.
type ConfigUpdate struct {
	KBFolder  *string `json:"kb_folder,omitempty"`
	ChunkSize *int    `json:"chunk_size,omitempty"`
	Overlap   *int    `json:"overlap,omitempty"`
	BatchSize *int    `json:"batch_size,omitempty"`
}

// IngestRequest triggers ingestion of the knowledge-base folder.
type IngestRequest struct {
	KBFolder   string `json:"kb_folder"`
	ChunkSize  int    `json:"chunk_size"`
	Overlap    int    `json:"overlap"`
	BatchSize  int    `json:"batch_size"`
	IngestDocx bool   `json:"ingest_docx"`
}

// IngestResponse reports the outcome of an ingestion run.
type IngestResponse struct {
	Success        bool   `json:"success"`
	ChunksUpserted int    `json:"chunks_upserted"`
	Message        string `json:"message"`
}

// ResetResponse reports the outcome of clearing the vector collection.
type ResetResponse struct {
	Success          bool   `json:"success"`
	DocumentsRemoved int    `json:"documents_removed"`
	Message          string `json:"message"`
}

// FolderSelection is the result of the server-side folder picker dialog.
type FolderSelection struct {
	SelectedFolder *string `json:"selected_folder"`
	Cancelled      bool    `json:"cancelled"`
}

// fileOperationRequest asks the server to open a file or folder locally.
type fileOperationRequest struct {
	Path string `json:"path"`
}

type fileOperationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
