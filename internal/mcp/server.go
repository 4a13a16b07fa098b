package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Hanc1999/LiveNote/internal/auth"
	"github.com/Hanc1999/LiveNote/internal/notes"
)

// NewServer creates an MCP server exposing note operations as tools. Every
// tool call runs under the configured user identity, so MCP clients see the
// same per-user collection the web client does.
func NewServer(svc *notes.Service, userID string) *server.MCPServer {
	s := server.NewMCPServer(
		"LiveNote",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Tool: list_notes - List all notes, most recently updated first
	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List all notes, ordered by most recently updated first. Each entry includes the note type (markdown or todo), color and full content."),
		),
		handleListNotes(svc, userID),
	)

	// Tool: get_note - Get a specific note by ID
	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get a single note by its ID, including its full content."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID"),
			),
		),
		handleGetNote(svc, userID),
	)

	// Tool: create_note - Create a markdown or todo note
	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a new note. Markdown notes start with empty content, todo notes with an empty item list; use update_note to fill them in."),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Note title"),
			),
			mcp.WithString("note_type",
				mcp.Required(),
				mcp.Description("Note type: 'markdown' or 'todo'"),
			),
			mcp.WithString("color",
				mcp.Description("Card color: blue, green, yellow, orange, pink, purple, gray or red (default: blue)"),
			),
		),
		handleCreateNote(svc, userID),
	)

	// Tool: update_note - Replace a note's title, content and color
	s.AddTool(
		mcp.NewTool("update_note",
			mcp.WithDescription("Update a note. Title, content and color are replaced wholesale; omitted fields keep their current value. For markdown notes pass 'markdown'; for todo notes pass 'items' as a JSON array of {id, text, completed, order}."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID"),
			),
			mcp.WithString("title",
				mcp.Description("New title"),
			),
			mcp.WithString("markdown",
				mcp.Description("New markdown content (markdown notes only)"),
			),
			mcp.WithString("items",
				mcp.Description("New todo items as a JSON array (todo notes only)"),
			),
			mcp.WithString("color",
				mcp.Description("New card color"),
			),
		),
		handleUpdateNote(svc, userID),
	)

	// Tool: delete_note - Delete a note by ID
	s.AddTool(
		mcp.NewTool("delete_note",
			mcp.WithDescription("Delete a note by its ID. There is no undo."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID"),
			),
		),
		handleDeleteNote(svc, userID),
	)

	return s
}

func handleListNotes(svc *notes.Service, userID string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		noteList, err := svc.List(auth.WithUserID(ctx, userID))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}

		data, _ := json.MarshalIndent(noteList, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleGetNote(svc *notes.Service, userID string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		note, err := svc.Get(auth.WithUserID(ctx, userID), id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %v", err)), nil
		}

		data, _ := json.MarshalIndent(note, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleCreateNote(svc *notes.Service, userID string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}
		noteType, err := req.RequireString("note_type")
		if err != nil {
			return mcp.NewToolResultError("note_type is required"), nil
		}
		color := notes.NoteColor(req.GetString("color", string(notes.DefaultColor)))

		note, err := svc.Create(auth.WithUserID(ctx, userID), title, notes.NoteType(noteType), color)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create note: %v", err)), nil
		}

		data, _ := json.MarshalIndent(note, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleUpdateNote(svc *notes.Service, userID string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		ctx = auth.WithUserID(ctx, userID)
		note, err := svc.Get(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %v", err)), nil
		}

		// Omitted fields keep their stored value; the write itself is still
		// a wholesale replace.
		upd := notes.NoteUpdate{
			Title:   req.GetString("title", note.Title),
			Content: note.Content,
			Color:   notes.NoteColor(req.GetString("color", string(note.Color))),
		}
		switch note.NoteType {
		case notes.TypeMarkdown:
			upd.Content = notes.MarkdownContent(req.GetString("markdown", note.Content.Markdown))
		case notes.TypeTodo:
			if raw := req.GetString("items", ""); raw != "" {
				var items []notes.TodoItem
				if err := json.Unmarshal([]byte(raw), &items); err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("invalid items JSON: %v", err)), nil
				}
				upd.Content = notes.TodoContent(items)
			}
		}

		updated, err := svc.Update(ctx, id, upd)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to update note: %v", err)), nil
		}

		data, _ := json.MarshalIndent(updated, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleDeleteNote(svc *notes.Service, userID string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		if err := svc.Delete(auth.WithUserID(ctx, userID), id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to delete note: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("note %s deleted", id)), nil
	}
}
