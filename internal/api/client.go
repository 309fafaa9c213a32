package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the note-search backend's plain request/response
// endpoints. The streaming query endpoint lives in the stream package.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewClient creates a client targeting the given backend base URL.
func NewClient(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
		log: log,
	}
}

// Query runs a search against the synchronous fallback endpoint and
// returns the full response in one piece.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var out QueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/query", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConfig fetches the server's current ingestion configuration.
func (c *Client) GetConfig(ctx context.Context) (Config, error) {
	cfg := DefaultConfig()
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UpdateConfig applies a partial configuration update and returns the
// resulting full configuration.
func (c *Client) UpdateConfig(ctx context.Context, update ConfigUpdate) (Config, error) {
	cfg := DefaultConfig()
	if err := c.do(ctx, http.MethodPut, "/api/config", update, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Ingest triggers ingestion of the knowledge-base folder.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (IngestResponse, error) {
	var out IngestResponse
	if err := c.do(ctx, http.MethodPost, "/api/ingest", req, &out); err != nil {
		return IngestResponse{}, err
	}
	return out, nil
}

// Reset clears the backend's vector collection.
func (c *Client) Reset(ctx context.Context) (ResetResponse, error) {
	var out ResetResponse
	if err := c.do(ctx, http.MethodPost, "/api/reset", nil, &out); err != nil {
		return ResetResponse{}, err
	}
	return out, nil
}

// OpenFile asks the server to open a file in its default application.
func (c *Client) OpenFile(ctx context.Context, path string) error {
	var out fileOperationResponse
	return c.do(ctx, http.MethodPost, "/api/open-file", fileOperationRequest{Path: path}, &out)
}

// OpenFolder asks the server to open a folder in the file explorer.
func (c *Client) OpenFolder(ctx context.Context, path string) error {
	var out fileOperationResponse
	return c.do(ctx, http.MethodPost, "/api/open-folder", fileOperationRequest{Path: path}, &out)
}

// SelectFolder opens the server-side folder picker dialog and reports the
// user's choice.
func (c *Client) SelectFolder(ctx context.Context) (FolderSelection, error) {
	var out FolderSelection
	if err := c.do(ctx, http.MethodPost, "/api/select-folder", nil, &out); err != nil {
		return FolderSelection{}, err
	}
	return out, nil
}

// ResetKBFolder restores the knowledge-base folder to its default and
// returns the resulting configuration.
func (c *Client) ResetKBFolder(ctx context.Context) (Config, error) {
	cfg := DefaultConfig()
	if err := c.do(ctx, http.MethodPost, "/api/reset-kb-folder", nil, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrorFromResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// ErrorFromResponse converts a non-success response into an error. The
// backend reports failures as {"detail": "..."}; when the body carries no
// such message a generic status-based error is returned.
func ErrorFromResponse(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &detail); err == nil && detail.Detail != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, detail.Detail)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
