package inject

import "github.com/hazyhaar/repli/dom"

// Candidate is one insertion anchor found by a scan, resolved to its
// container.
type Candidate struct {
	Key       string   // container identity
	Container dom.Node // where the trigger goes
	Before    dom.Node // container child the trigger is inserted before
	Compose   bool     // anchor belongs to a new-post composer
	Existing  int      // live triggers already in the container
}

// Record is the injection record of one trigger inserted by a pass.
type Record struct {
	TriggerID    string
	ContainerKey string
}

// Plan selects the candidates that need a trigger. Compose contexts and
// containers already holding max triggers are skipped, and a container
// reached through several anchors is planned once. Order is preserved.
// Plan is pure: the same scan always yields the same plan, so rescanning
// an injected container changes nothing.
func Plan(cands []Candidate, max int) []Candidate {
	if max <= 0 {
		max = 1
	}
	seen := make(map[string]bool, len(cands))
	var out []Candidate
	for _, c := range cands {
		if seen[c.Key] {
			continue
		}
		seen[c.Key] = true
		if c.Compose || c.Existing >= max {
			continue
		}
		out = append(out, c)
	}
	return out
}
