package powershell_test

import (
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	powershell "github.com/tuupertunut/powershell-lib-go"
)

// The tests below drive a real PowerShell and are skipped when none
// is installed.

func openRealSession(t *testing.T) *powershell.Session {
	t.Helper()
	name := "pwsh"
	if runtime.GOOS == "windows" {
		name = "powershell"
	}
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not installed; skipping", name)
	}
	session, err := powershell.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// nl is the line terminator the local shell prints.
var nl = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

func TestIntegrationHello(t *testing.T) {
	session := openRealSession(t)

	out, err := session.Execute("Write-Output 'hello Go'")
	require.NoError(t, err)
	assert.Equal(t, "hello Go"+nl, out)
}

func TestIntegrationMultiline(t *testing.T) {
	session := openRealSession(t)

	out, err := session.Execute(
		"for ($i = 1; $i -le 5; $i++) {",
		"    Write-Output $i",
		"}")
	require.NoError(t, err)
	assert.Equal(t, "1"+nl+"2"+nl+"3"+nl+"4"+nl+"5"+nl, out)
}

func TestIntegrationStatePersistsAcrossCalls(t *testing.T) {
	session := openRealSession(t)

	_, err := session.Execute("$s = 'abc'")
	require.NoError(t, err)

	out, err := session.Execute("Write-Output $s")
	require.NoError(t, err)
	assert.Equal(t, "abc"+nl, out)
}

func TestIntegrationEscapeRoundTrip(t *testing.T) {
	session := openRealSession(t)

	param := "thi's won't bre;ak' the' code"
	out, err := session.Execute("Write-Output " + powershell.EscapeString(param))
	require.NoError(t, err)
	assert.Equal(t, param+nl, out)
}

func TestIntegrationInvalidCommand(t *testing.T) {
	session := openRealSession(t)

	_, err := session.Execute("this is not a valid command")
	var execErr *powershell.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.NotEmpty(t, execErr.ErrorText)
}

func TestIntegrationThrow(t *testing.T) {
	session := openRealSession(t)

	_, err := session.Execute("throw 'error message'")
	var execErr *powershell.ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func TestIntegrationUnclosedLiteralDoesNotDesync(t *testing.T) {
	session := openRealSession(t)

	// An unterminated literal raises a command error instead of
	// leaving the interactive session waiting for more input.
	_, err := session.Execute("Write-Output 'unclosed")
	var execErr *powershell.ExecutionError
	require.ErrorAs(t, err, &execErr)

	// The same session still accepts further commands.
	out, err := session.Execute("Write-Output 'still alive'")
	require.NoError(t, err)
	assert.Equal(t, "still alive"+nl, out)
}
