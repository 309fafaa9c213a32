package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zap.NewNop())
}

func TestQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "meeting notes", req.Query)
		assert.True(t, req.UseRerank)
		assert.Equal(t, 3, req.NResults)

		fmt.Fprint(w, `{
			"results": [
				{"rank":1,"similarity":0.87,"title":"standup","source":"kb/standup.md","snippet":"...","document":"full","metadata":{"source_file":"/kb/standup.md"}},
				{"rank":2,"similarity":null,"title":"retro","source":"kb/retro.md","snippet":"...","document":"full","metadata":{}}
			],
			"llm_response": null,
			"total_results": 2
		}`)
	})

	resp, err := client.Query(context.Background(), QueryRequest{Query: "meeting notes", UseRerank: true, NResults: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.TotalResults)
	assert.Nil(t, resp.LLMResponse)

	require.NotNil(t, resp.Results[0].Similarity)
	assert.InDelta(t, 0.87, *resp.Results[0].Similarity, 1e-9)
	assert.Nil(t, resp.Results[1].Similarity)
	assert.Equal(t, "/kb/standup.md", resp.Results[0].SourcePath())
	assert.Equal(t, "kb/retro.md", resp.Results[1].SourcePath(), "Source is the fallback when metadata lacks source_file")
}

func TestQueryServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"detail":"chroma is down"}`)
	})

	_, err := client.Query(context.Background(), QueryRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chroma is down")
	assert.Contains(t, err.Error(), "500")
}

func TestGetConfigFillsDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/config", r.URL.Path)
		// Server omits everything but the folder; the rest must fall
		// back to defaults.
		fmt.Fprint(w, `{"kb_folder":"/my/notes"}`)
	})

	cfg, err := client.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/my/notes", cfg.KBFolder)
	assert.Equal(t, 100000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.Overlap)
	assert.Equal(t, 64, cfg.BatchSize)
}

func TestUpdateConfigSendsOnlyChangedFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(body, &raw))
		assert.Equal(t, map[string]any{"overlap": float64(300)}, raw)

		fmt.Fprint(w, `{"kb_folder":"kb","chunk_size":100000,"overlap":300,"batch_size":64}`)
	})

	overlap := 300
	cfg, err := client.UpdateConfig(context.Background(), ConfigUpdate{Overlap: &overlap})
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Overlap)
}

func TestIngest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ingest", r.URL.Path)

		var req IngestRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/my/notes", req.KBFolder)
		assert.True(t, req.IngestDocx)

		fmt.Fprint(w, `{"success":true,"chunks_upserted":42,"message":"Ingestion finished: 42 chunks upserted."}`)
	})

	resp, err := client.Ingest(context.Background(), IngestRequest{KBFolder: "/my/notes", ChunkSize: 1000, Overlap: 100, BatchSize: 16, IngestDocx: true})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 42, resp.ChunksUpserted)
}

func TestReset(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reset", r.URL.Path)
		fmt.Fprint(w, `{"success":true,"documents_removed":7,"message":"cleared"}`)
	})

	resp, err := client.Reset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, resp.DocumentsRemoved)
}

func TestOpenFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/open-file", r.URL.Path)

		var req struct {
			Path string `json:"path"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/kb/note.md", req.Path)

		fmt.Fprint(w, `{"success":true,"message":"opened"}`)
	})

	require.NoError(t, client.OpenFile(context.Background(), "/kb/note.md"))
}

func TestSelectFolderCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/select-folder", r.URL.Path)
		fmt.Fprint(w, `{"selected_folder":null,"cancelled":true}`)
	})

	sel, err := client.SelectFolder(context.Background())
	require.NoError(t, err)
	assert.True(t, sel.Cancelled)
	assert.Nil(t, sel.SelectedFolder)
}

func TestResultItemSourceDir(t *testing.T) {
	r := ResultItem{Metadata: map[string]any{"source_file": "/kb/projects/plan.md"}}
	assert.Equal(t, "/kb/projects", r.SourceDir())

	empty := ResultItem{}
	assert.Equal(t, "", empty.SourceDir())
}
