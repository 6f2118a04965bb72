package reply

import (
	"errors"

	"github.com/hazyhaar/repli/completion"
	"github.com/hazyhaar/repli/dom"
)

// Error kinds reported in Outcome.Err. Every failure is terminal for its
// activation; nothing is retried.
var (
	ErrElementNotFound   = dom.ErrElementNotFound
	ErrTransportFailure  = completion.ErrTransport
	ErrMalformedResponse = completion.ErrMalformedResponse

	// ErrBusy is returned for an activation of a trigger whose previous
	// activation is still pending.
	ErrBusy = errors.New("reply: trigger busy")
	// ErrDetached is returned when the reply composer disappeared while
	// the completion was in flight. The reply is discarded.
	ErrDetached = errors.New("reply: composer detached")
)

// GenericError is the only failure text shown in the host page.
const GenericError = "Something went wrong. Please make sure you have saved the correct API key."
