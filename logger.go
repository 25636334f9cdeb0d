package powershell

import (
	"fmt"
	"log"
	"os"

	"github.com/tuupertunut/powershell-lib-go/recorder"
)

// enableLogging can be set to true to see detailed logging.
var enableLogging = false

const abbrevMaxLen = 65

func abbrev(x string) string {
	if len(x) > abbrevMaxLen {
		return x[0:abbrevMaxLen-1] + "..."
	}
	return x
}

// VerboseLoggingEnable enables detailed logging.
func VerboseLoggingEnable() {
	enableLogging, recorder.VerboseLoggingEnabled = true, true
}

// VerboseLoggingDisable disables detailed logging.
func VerboseLoggingDisable() {
	enableLogging, recorder.VerboseLoggingEnabled = false, false
}

type logSink struct{}

func (l logSink) Write(p []byte) (n int, err error) {
	if enableLogging {
		return fmt.Fprint(os.Stderr, string(p))
	}
	return 0, nil
}

var logger = log.New(&logSink{}, "PSH: ", log.Ldate|log.Ltime|log.Lshortfile)
