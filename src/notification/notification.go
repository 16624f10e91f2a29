// Package notification reports fatal daemon errors to a user who may have
// launched the overlay without a console.
package notification

import (
	"fmt"
	"io"
	"os"
)

// stderr is swapped in tests.
var stderr io.Writer = os.Stderr

// ShowBlockingError shows message and returns once the user dismissed it.
// Platforms without a native dialog print to stderr.
func ShowBlockingError(title, message string) {
	if showDialog(title, message) {
		return
	}
	fmt.Fprintf(stderr, "%s: %s\n", title, message)
}
