package acme

import (
	"os"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Structured logging for operational soft-errors (queue
 *		overflow) that must not halt the simulation.
 *
 *---------------------------------------------------------------*/

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "acme",
})

// SetLogger replaces the package-level logger. Scenario drivers that want
// a different sink (a file, a quieter level for tests) call this once at
// startup; the zero value is rejected so callers can't accidentally
// silence warnings by passing nil.
func SetLogger(l *log.Logger) {
	if l != nil {
		logger = l
	}
}

// DefaultLogger returns the logger currently in effect, so a driver can
// attach its own fields (run id, scenario path) without losing the sink
// SetLogger installed.
func DefaultLogger() *log.Logger {
	return logger
}
