// Package lsp implements a diagnostics-only language server over
// SafeChain's two text surfaces: channel catalogue JSON files and
// condition-boolean strings (one expression per line, the syntax used
// throughout trigger/action templates and rule files). There is no
// completion or semantic-token support — the teacher's kanso-lsp
// targets a real programming language with structure worth
// highlighting; SafeChain's inputs are small enough that catching
// catalogue errors and condition syntax errors as you type is the whole
// of the value.
package lsp

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"safechain/internal/catalog"
	"safechain/internal/cond"
)

// Handler implements the glsp protocol.Handler callbacks SafeChain's
// server advertises. Grounded on kanso's KansoHandler shape (a
// mutex-guarded per-path document map, Initialize/Initialized/Shutdown
// plus the TextDocumentDidOpen/DidChange/DidClose trio driving
// validation), trimmed of the AST-caching and semantic-token fields
// this server has no use for.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
}

// NewHandler creates an empty Handler.
func NewHandler() *Handler {
	return &Handler{content: make(map[string]string)}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.revalidate(ctx, params.TextDocument.URI)
}

// TextDocumentDidChange re-reads the document from disk rather than
// threading the change event's text through, the same choice kanso's
// handler makes (updateAST re-reads via os.ReadFile on every open and
// change notification instead of reconstructing the buffer from
// incremental edits).
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	return h.revalidate(ctx, params.TextDocument.URI)
}

func (h *Handler) revalidate(ctx *glsp.Context, uri protocol.DocumentUri) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lsp: read %s: %w", path, err)
	}
	return h.validateAndPublish(ctx, uri, string(data))
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()
	return nil
}

// Diagnose validates one document's text and returns its diagnostics,
// without requiring a live glsp.Context — the entry point handler_test
// exercises directly, and the one TextDocumentDidOpen/DidChange reuse.
func (h *Handler) Diagnose(uri protocol.DocumentUri, text string) ([]protocol.Diagnostic, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.content[path] = text
	h.mu.Unlock()

	if strings.HasSuffix(path, ".json") {
		return validateCatalogue(path, text), nil
	}
	return validateConditions(text), nil
}

func (h *Handler) validateAndPublish(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	diagnostics, err := h.Diagnose(uri, text)
	if err != nil {
		return err
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	return nil
}

// validateCatalogue compiles a catalogue JSON document the way
// internal/catalog.Parse does, deriving the channel kind from the
// file's base name (sans extension) since an editor buffer carries no
// other hint of which channel it defines.
func validateCatalogue(path, text string) []protocol.Diagnostic {
	channelKind := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if _, err := catalog.Parse(channelKind, []byte(text)); err != nil {
		return []protocol.Diagnostic{catalogueDiagnostic(err)}
	}
	return nil
}

// validateConditions parses every non-empty, non-comment line of text
// as a condition-boolean string, the form trigger/action templates and
// rule bodies use throughout the catalogue.
func validateConditions(text string) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if _, err := cond.Parse(trimmed); err != nil {
			diagnostics = append(diagnostics, conditionDiagnostic(uint32(i), line, err))
		}
	}
	return diagnostics
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("lsp: invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 2 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
