package malleable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"malleableSched/internal/malleable"
)

func TestProfile(t *testing.T) {
	p := malleable.NewProfile(3)
	p.Add(0, 4, 2)
	p.Add(2, 6, 1)

	require.Equal(t, 3, p.Peak(0, 6))
	require.Equal(t, 2, p.Peak(0, 2))
	require.Equal(t, 1, p.Peak(4, 6))
	require.Equal(t, 0, p.Peak(6, 100))

	require.True(t, p.Fits(0, 2, 1))
	require.False(t, p.Fits(0, 3, 1))
	require.Equal(t, 4, p.EarliestStart(0, 2, 2))
	require.Equal(t, 6, p.EarliestStart(0, 1, 3))
	require.Equal(t, 0, p.EarliestStart(0, 2, 1))
	require.Equal(t, 10, p.EarliestStart(10, 5, 3))
}
