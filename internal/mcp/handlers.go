// ABOUTME: MCP tool handler implementations for the docqa server
// ABOUTME: Every failure is reported as a tool error result, never a protocol error
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/extract"
	"github.com/harper/docqa/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Library is the document store the tools manage
type Library interface {
	Save(ctx context.Context, doc *models.Document) error
	List(ctx context.Context) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	engine     *core.Engine
	library    Library
	logger     *log.Logger
	shutdownWg *sync.WaitGroup // tracks background rebuilds

	mu      sync.Mutex
	closing bool
}

// DocumentSummary is the listing form of a document
type DocumentSummary struct {
	DocumentID string    `json:"document_id"`
	SourceName string    `json:"source_name"`
	Chars      int       `json:"chars"`
	Pages      int       `json:"pages"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summarize describes a document without its text
func Summarize(doc models.Document) DocumentSummary {
	return DocumentSummary{
		DocumentID: doc.DocumentID,
		SourceName: doc.SourceName,
		Chars:      len(doc.FullText),
		Pages:      len(doc.PageMap),
		CreatedAt:  doc.CreatedAt,
	}
}

// AddDocument handles the add_document tool
func (h *Handlers) AddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	text := request.GetString("text", "")
	name := request.GetString("name", "")

	var doc models.Document
	switch {
	case path != "":
		extracted, err := extract.FromFile(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to extract %s: %v", path, err)), nil
		}
		doc = extracted
		if name != "" {
			doc.SourceName = name
		}
	case strings.TrimSpace(text) != "":
		if name == "" {
			name = "untitled"
		}
		doc = extract.FromText(name, text)
	default:
		return mcp.NewToolResultError("either text or path is required"), nil
	}

	if err := h.library.Save(ctx, &doc); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save document: %v", err)), nil
	}
	h.logger.Info("document added", "id", doc.DocumentID, "source", doc.SourceName)

	response := map[string]interface{}{
		"success":  true,
		"document": Summarize(doc),
	}

	if request.GetBool("rebuild", false) {
		result, err := h.engine.RebuildFromStore(ctx)
		if err != nil {
			return rebuildError(err), nil
		}
		response["rebuild"] = result
	}

	return jsonResult(response)
}

// DeleteDocument handles the delete_document tool
func (h *Handlers) DeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("document_id argument is required and must be a string"), nil
	}

	if err := h.library.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("document not found: %s", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete document: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"success":     true,
		"document_id": id,
		"note":        "run rebuild_index to drop its chunks from search",
	})
}

// ListDocuments handles the list_documents tool
func (h *Handlers) ListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := h.library.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
	}

	summaries := make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, Summarize(doc))
	}

	return jsonResult(map[string]interface{}{
		"documents": summaries,
		"count":     len(summaries),
	})
}

// RebuildIndex handles the rebuild_index tool
func (h *Handlers) RebuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !request.GetBool("async", false) {
		result, err := h.engine.RebuildFromStore(ctx)
		if err != nil {
			return rebuildError(err), nil
		}
		return jsonResult(map[string]interface{}{
			"success": true,
			"result":  result,
		})
	}

	if !h.track() {
		return mcp.NewToolResultError("server is shutting down"), nil
	}

	// The request context ends with this call, so the background build gets its own
	err := h.engine.StartRebuildFromStore(context.Background(), func(result models.RebuildResult, err error) {
		defer h.shutdownWg.Done()
		if err != nil {
			h.logger.Error("background rebuild failed", "err", err)
			return
		}
		h.logger.Info("background rebuild finished", "version", result.Version, "chunks", result.ChunkCount)
	})
	if err != nil {
		h.shutdownWg.Done()
		return rebuildError(err), nil
	}

	return jsonResult(map[string]interface{}{
		"success": true,
		"status":  "started",
	})
}

// AskQuestion handles the ask_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	opts := core.AskOptions{
		DocumentScope: request.GetString("document_id", ""),
		Limit:         request.GetInt("limit", 0),
	}

	answer, err := h.engine.Ask(ctx, question, opts)
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		return mcp.NewToolResultError(fmt.Sprintf("invalid question: %v", err)), nil
	case errors.Is(err, models.ErrRetrievalUnavailable):
		return mcp.NewToolResultError(fmt.Sprintf("retrieval is temporarily unavailable: %v", err)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to answer: %v", err)), nil
	}

	return jsonResult(answer)
}

// IndexStatus handles the index_status tool
func (h *Handlers) IndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := h.library.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count documents: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"index":             h.engine.Status(),
		"library_documents": len(docs),
	})
}

// track registers a background rebuild unless Shutdown has begun
func (h *Handlers) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.shutdownWg.Add(1)
	return true
}

// Shutdown refuses new background rebuilds and waits for running ones
func (h *Handlers) Shutdown() {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()

	h.logger.Info("waiting for background rebuilds")
	h.shutdownWg.Wait()
}

func rebuildError(err error) *mcp.CallToolResult {
	if errors.Is(err, models.ErrBuildInProgress) {
		return mcp.NewToolResultError("a rebuild is already running; retry shortly")
	}
	return mcp.NewToolResultError(fmt.Sprintf("rebuild failed: %v", err))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
