// Package idgen generates the identifiers repli hands out: trigger ids
// written into host pages and session ids exposed on the control API.
//
// Constructors that mint ids accept a Generator so tests can substitute a
// deterministic sequence.
package idgen

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
// They are time-sortable, so trigger ids order by injection time.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Sequence returns a Generator producing prefix1, prefix2, ... It is safe
// for concurrent use.
func Sequence(prefix string) Generator {
	var n atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

const (
	TriggerPrefix = "trg_"
	SessionPrefix = "ses_"
)

// Trigger mints ids for injected triggers.
var Trigger = Prefixed(TriggerPrefix, UUIDv7())

// Session mints ids for page sessions.
var Session = Prefixed(SessionPrefix, UUIDv7())

// Parse validates a prefixed or bare UUID and returns it unchanged.
func Parse(s string) (string, error) {
	bare := s
	for _, p := range []string{TriggerPrefix, SessionPrefix} {
		bare = strings.TrimPrefix(bare, p)
	}
	if _, err := uuid.Parse(bare); err != nil {
		return "", fmt.Errorf("idgen: invalid id %q: %w", s, err)
	}
	return s, nil
}
