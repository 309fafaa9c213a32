package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"kbsearch/internal/api"
)

// QueryClient issues streaming queries against the backend and decodes
// the response stream into events.
type QueryClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewQueryClient creates a streaming client targeting the given backend.
// The underlying http.Client carries no overall timeout: the response
// body stays open for the life of the stream.
func NewQueryClient(baseURL string, log *zap.Logger) *QueryClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		log:     log,
	}
}

// Start issues one streaming query and calls onEvent for every decoded
// event, in strict stream order, until the server closes the stream.
// Stream end is implicit; there is no terminal event.
//
// A failure before streaming begins (network error or non-success status)
// is returned as an error with no events emitted. A transport failure
// after headers are received is instead delivered once through onEvent as
// an ErrorEvent, because events already dispatched must stand. Start does
// not retry.
func (c *QueryClient) Start(ctx context.Context, req api.QueryRequest, onEvent func(Event)) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal query request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query-stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build query request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("query stream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return api.ErrorFromResponse(resp)
	}

	decoder := NewDecoder(c.log)
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, frame := range decoder.Feed(buf[:n]) {
				if ev := promote(frame, c.log); ev != nil {
					onEvent(ev)
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			// Headers were already received, so partial events may have
			// been delivered; surface the failure in-band instead.
			c.log.Warn("query stream interrupted", zap.Error(readErr))
			onEvent(ErrorEvent{Message: "stream interrupted: " + readErr.Error()})
			return nil
		}
	}
}
