package snowflake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPublicID(t *testing.T) {
	require.NoError(t, Init(1, 1))

	a, err := NextPublicID("clinic")
	require.NoError(t, err)
	b, err := NextPublicID("clinic")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "clinic_"))
	assert.NotEqual(t, a, b)
}
