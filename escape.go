package powershell

import "strings"

// EscapeString wraps a string in single quotes and escapes all
// PowerShell special characters, so that the shell interprets the
// result as exactly the original string. In single quoted PowerShell
// literals the only special character is the single quote itself,
// escaped by doubling it.
func EscapeString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
