package rodpage

import (
	"context"
	"fmt"
)

// Clipboard is the browser's async clipboard as seen by a page. The
// browser must grant clipboard permissions to the page's origin.
type Clipboard struct {
	Page *Page
}

func (c Clipboard) WriteText(ctx context.Context, text string) error {
	_, err := c.Page.page.Context(ctx).Eval(`(text) => navigator.clipboard.writeText(text)`, text)
	if err != nil {
		return fmt.Errorf("rodpage: clipboard write: %w", err)
	}
	return nil
}

func (c Clipboard) ReadText(ctx context.Context) (string, error) {
	res, err := c.Page.page.Context(ctx).Eval(`() => navigator.clipboard.readText()`)
	if err != nil {
		return "", fmt.Errorf("rodpage: clipboard read: %w", err)
	}
	return res.Value.Str(), nil
}
