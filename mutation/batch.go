// Package mutation defines the change batches a page source emits after
// the host document changes. The injection controller only consumes their
// shape (which kinds of change happened); it never replays them.
package mutation

// Op is the type of DOM mutation observed.
type Op string

const (
	OpInsert   Op = "insert"    // node added to a child list
	OpRemove   Op = "remove"    // node removed from a child list
	OpText     Op = "text"      // characterData modified
	OpAttr     Op = "attr"      // attribute modified
	OpDocReset Op = "doc_reset" // entire document replaced (full navigation)
)

// Record is a single DOM mutation.
type Record struct {
	Op       Op     `json:"op"`
	NodeType int    `json:"node_type,omitempty"` // 1=element, 3=text, 8=comment
	Tag      string `json:"tag,omitempty"`
	Name     string `json:"name,omitempty"` // attribute name for attr
}

// Structural reports whether the record changed the shape of the tree.
func (r Record) Structural() bool {
	switch r.Op {
	case OpInsert, OpRemove, OpDocReset:
		return true
	}
	return false
}

// Batch is the unit emitted by a change source: every record delivered by
// one observer callback.
type Batch struct {
	SessionID string   `json:"session_id"`
	PageURL   string   `json:"page_url"`
	Seq       uint64   `json:"seq"` // monotonically increasing per source
	Records   []Record `json:"records"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds
}

// Structural reports whether any record in the batch changed the shape of
// the tree. Attribute and text churn never creates a new container.
func (b Batch) Structural() bool {
	for _, r := range b.Records {
		if r.Structural() {
			return true
		}
	}
	return false
}
