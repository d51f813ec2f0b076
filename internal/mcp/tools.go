// ABOUTME: MCP tool definitions and registration for the docqa server
// ABOUTME: Exposes the document library, rebuilds and grounded question answering
package mcp

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/core"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, engine *core.Engine, library Library) *Handlers {
	handlers := NewHandlers(engine, library)

	// 1. add_document - store text or a file in the library
	server.AddTool(mcp.Tool{
		Name:        "add_document",
		Description: "Add a document to the library from inline text or a local file path (PDF or text). The index is not updated until rebuild_index runs, unless rebuild is true.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Document text (ignored when path is set)",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to a .pdf or text file to extract",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Source name shown in citations (default: file name or 'untitled')",
				},
				"rebuild": map[string]interface{}{
					"type":        "boolean",
					"description": "Rebuild the index after adding (default: false)",
					"default":     false,
				},
			},
		},
	}, handlers.AddDocument)

	// 2. delete_document - remove a document from the library
	server.AddTool(mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a document from the library by ID. Its chunks stay searchable until the next rebuild.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the document to delete",
				},
			},
			Required: []string{"document_id"},
		},
	}, handlers.DeleteDocument)

	// 3. list_documents - list the library
	server.AddTool(mcp.Tool{
		Name:        "list_documents",
		Description: "List every document in the library with its size and page count.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListDocuments)

	// 4. rebuild_index - build a new snapshot from the library
	server.AddTool(mcp.Tool{
		Name:        "rebuild_index",
		Description: "Rebuild the search index from all documents in the library. Only one rebuild runs at a time; questions keep using the previous index until the new one is ready.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"async": map[string]interface{}{
					"type":        "boolean",
					"description": "Return immediately and rebuild in the background (default: false)",
					"default":     false,
				},
			},
		},
	}, handlers.RebuildIndex)

	// 5. ask_question - answer from the indexed documents
	server.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question using only the indexed documents. Returns the answer with cited sources, or a no-evidence result when nothing relevant is indexed.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Restrict retrieval to this document",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of sources to retrieve (default: configured top_k)",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskQuestion)

	// 6. index_status - describe the active snapshot
	server.AddTool(mcp.Tool{
		Name:        "index_status",
		Description: "Report the active index version, chunk and document counts, and whether a rebuild is running.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.IndexStatus)

	return handlers
}

// NewHandlers creates handlers over an engine and document library
func NewHandlers(engine *core.Engine, library Library) *Handlers {
	return &Handlers{
		engine:     engine,
		library:    library,
		logger:     log.WithPrefix("mcp"),
		shutdownWg: &sync.WaitGroup{},
	}
}
