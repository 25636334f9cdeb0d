package powershell_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	powershell "github.com/tuupertunut/powershell-lib-go"
)

func TestParametersValidateDefaults(t *testing.T) {
	p := powershell.Parameters{}
	require.NoError(t, p.Validate())

	assert.NotEmpty(t, p.Executable)
	assert.NotEmpty(t, p.LineSeparator)
	assert.True(t, strings.HasPrefix(p.Marker, "end-of-command-"), p.Marker)

	// Every session gets its own marker by default.
	q := powershell.Parameters{}
	require.NoError(t, q.Validate())
	assert.NotEqual(t, p.Marker, q.Marker)
}

func TestParametersValidateMarker(t *testing.T) {
	p := powershell.Parameters{Marker: "abc"}
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short at len=3")

	p = powershell.Parameters{Marker: "end'of'command"}
	err = p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not contain quotes")

	p = powershell.Parameters{Marker: "end-of\ncommand"}
	assert.Error(t, p.Validate())

	p = powershell.Parameters{Marker: "long-enough-marker"}
	assert.NoError(t, p.Validate())
}
