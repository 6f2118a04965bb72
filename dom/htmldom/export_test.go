package htmldom

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/repli/mutation"
)

// withPasteHandler replaces the default paste behaviour.
func withPasteHandler(h func(target *html.Node, text string) bool) Option {
	return func(d *Document) { d.onPaste = h }
}

// dismissError closes every open error panel, as a click on Close would.
func (d *Document) dismissError() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range queryAll(d.root, mustCompile("#repli-modal")) {
		p.Parent.RemoveChild(p)
	}
	d.panels = nil
	d.changedLocked(mutation.Record{Op: mutation.OpRemove, NodeType: 1, Tag: "div"})
}
