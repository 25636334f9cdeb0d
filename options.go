package powershell

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Parameters is a bag of parameters for a Session.
// The zero value is usable; Validate fills in defaults.
type Parameters struct {
	// Executable is either an executable name like "pwsh" or a path
	// to the executable file. Defaults to "powershell" on Windows and
	// "pwsh" elsewhere.
	Executable string

	// WorkingDir is the working directory of the shell process.
	// Empty means the current process working directory.
	WorkingDir string

	// Marker is the string printed by the shell after every command
	// to mark the end of that command's output. The library assumes
	// the marker never occurs in genuine command output; if it does,
	// behavior is undefined. The longer the marker, the less the
	// chance of a collision. Defaults to "end-of-command-" followed
	// by a fresh ULID, so every session gets its own marker.
	Marker string

	// LineSeparator is the line terminator convention of the shell
	// process. Defaults to the host platform's convention. Only
	// tests driving a session over injected streams should need to
	// set this.
	LineSeparator string
}

// markerLenMin is used in Parameters validation. A marker shorter
// than this fails validation, because a short marker is too easy to
// confuse with genuine output.
const markerLenMin = 6

// Validate fills in defaults and returns an error if there's a
// problem in the Parameters.
func (p *Parameters) Validate() error {
	p.setDefaults()
	if len(p.Marker) < markerLenMin {
		return fmt.Errorf(
			"marker %q too short at len=%d; must be >= %d chars long",
			p.Marker, len(p.Marker), markerLenMin)
	}
	if strings.ContainsAny(p.Marker, "'\r\n") {
		return fmt.Errorf(
			"marker %q must not contain quotes or line terminators", p.Marker)
	}
	return nil
}

func (p *Parameters) setDefaults() {
	if p.Executable == "" {
		p.Executable = defaultExecutable()
	}
	if p.Marker == "" {
		p.Marker = "end-of-command-" + ulid.Make().String()
	}
	if p.LineSeparator == "" {
		p.LineSeparator = lineSeparator
	}
}
