package shed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseText(t *testing.T) {
	text, err := PhaseShedEnabled.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "shed-enabled", string(text))
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestPhaseUnmarshalText(t *testing.T) {
	var p Phase
	require.NoError(t, p.UnmarshalText([]byte("slough-only")))
	assert.Equal(t, PhaseSloughOnly, p)
	assert.Error(t, p.UnmarshalText([]byte("molting")))
}
