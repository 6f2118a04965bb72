package repli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/repli/internal/browser"
	"github.com/hazyhaar/repli/internal/rodpage"
	"github.com/hazyhaar/repli/writer"
)

// ChromeOpener opens sessions in the Chrome a browser manager drives.
type ChromeOpener struct {
	Manager *browser.Manager
	// Reuse attaches to an already open tab showing the same URL instead
	// of opening a new one.
	Reuse  bool
	Logger *slog.Logger
}

var _ Opener = (*ChromeOpener)(nil)

func (o *ChromeOpener) Open(ctx context.Context, url, sessionID string) (Tab, error) {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}

	var page *rod.Page
	if o.Reuse {
		page = o.existing(url)
	}
	if page == nil {
		tab, err := browser.OpenTab(ctx, o.Manager, url)
		if err != nil {
			return nil, err
		}
		page = tab.Page
	}

	p, err := rodpage.Attach(context.WithoutCancel(ctx), page,
		rodpage.WithLogger(log.With("session", sessionID)),
		rodpage.WithSessionID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("repli: attach: %w", err)
	}
	return chromeTab{p}, nil
}

func (o *ChromeOpener) existing(url string) *rod.Page {
	pages, err := o.Manager.Pages()
	if err != nil {
		return nil
	}
	for _, p := range pages {
		info, err := p.Info()
		if err == nil && info.URL == url {
			return p
		}
	}
	return nil
}

// chromeTab leaves the Chrome tab open on Close; the user keeps it.
type chromeTab struct {
	*rodpage.Page
}

func (t chromeTab) Close(ctx context.Context) error {
	return t.Detach(ctx)
}

// PageClipboard returns a Config.Clipboard using the tab's async clipboard.
func PageClipboard(t Tab) writer.Clipboard {
	if ct, ok := t.(chromeTab); ok {
		return rodpage.Clipboard{Page: ct.Page}
	}
	return nil
}

// SystemClipboard returns a Config.Clipboard using the OS clipboard.
func SystemClipboard(Tab) writer.Clipboard {
	return writer.SystemClipboard{}
}
