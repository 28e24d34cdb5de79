// Package popup defines the rendered-result consumer contract. Popup
// rendering/HTML/CSS is explicitly out of scope (spec.md §1); this
// package provides only the Sink interface and a logging reference
// implementation.
package popup

import (
	"github.com/rtr46/hoverdict/logger"
	"github.com/rtr46/hoverdict/model"
)

// Sink receives ranked lookup results to display near the cursor, and
// a signal to hide whatever is currently shown.
type Sink interface {
	Show(results []model.DictionaryEntryResult, x, y int)
	Hide()
}

// LoggingSink is the reference Sink: it logs what would have been
// shown instead of rendering anything, per spec.md §1's scope note
// that popup rendering is an external collaborator the core is not
// responsible for.
type LoggingSink struct{}

// Show logs the result count and position.
func (LoggingSink) Show(results []model.DictionaryEntryResult, x, y int) {
	logger.Stage("popup").Debug().
		Int("results", len(results)).
		Int("x", x).Int("y", y).
		Msg("popup show")
}

// Hide logs the hide event.
func (LoggingSink) Hide() {
	logger.Stage("popup").Debug().Msg("popup hide")
}
