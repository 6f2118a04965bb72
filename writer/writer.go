// Package writer commits text into framework-controlled editable regions.
//
// Hosts built on client-side frameworks keep the editor's content in
// their own state model and overwrite direct DOM edits on the next render.
// Paste goes through the host's own paste handler instead, so the
// framework ingests the text as if the user had pasted it.
package writer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/repli/dom"
)

// Writer commits text into an editable element. Implementations make one
// attempt and do not verify that the host applied it.
type Writer interface {
	Commit(ctx context.Context, target dom.Node, text string) error
}

// Editor is the subset of dom.Page a paste needs.
type Editor interface {
	Focus(ctx context.Context, n dom.Node) error
	SelectContents(ctx context.Context, n dom.Node) error
	DispatchPaste(ctx context.Context, n dom.Node, text string) error
}

// Clipboard is a writable clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Paste commits text by simulating a user paste.
type Paste struct {
	Editor    Editor
	Clipboard Clipboard // optional; nil skips the clipboard round-trip
	Logger    *slog.Logger
}

var _ Writer = (*Paste)(nil)

// Commit focuses target, selects its whole content, places text on the
// clipboard, dispatches a paste event carrying text and clears the
// clipboard again. Clearing is best effort: a failure is logged and the
// clipboard may keep the generated text.
func (p *Paste) Commit(ctx context.Context, target dom.Node, text string) error {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := p.Editor.Focus(ctx, target); err != nil {
		return fmt.Errorf("writer: focus: %w", err)
	}
	if err := p.Editor.SelectContents(ctx, target); err != nil {
		return fmt.Errorf("writer: select: %w", err)
	}

	if p.Clipboard != nil {
		if err := p.Clipboard.WriteText(ctx, text); err != nil {
			return fmt.Errorf("writer: clipboard write: %w", err)
		}
		defer func() {
			// The caller's context may already be done; clearing must still run.
			if err := p.Clipboard.WriteText(context.WithoutCancel(ctx), ""); err != nil {
				log.Warn("writer: clipboard clear failed", "error", err)
			}
		}()
	}

	if err := p.Editor.DispatchPaste(ctx, target, text); err != nil {
		return fmt.Errorf("writer: dispatch paste: %w", err)
	}
	log.Debug("writer: paste dispatched", "chars", len(text))
	return nil
}
