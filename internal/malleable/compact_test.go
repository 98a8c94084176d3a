package malleable_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"malleableSched/internal/malleable"
)

func TestCompactClosesBarrierGaps(t *testing.T) {
	inst := diamond(t)
	s, err := malleable.ListSchedule(inst, []int{2, 1, 1, 2}, []int{0, 1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 12, s.Makespan())

	c := malleable.Compact(inst, s)
	require.NoError(t, c.Validate(inst))
	require.Equal(t, []int{0, 2, 2, 8}, starts(c, inst.N()))
	require.Equal(t, 9, c.Makespan())
}

func TestCompactNeverDelays(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inst := drawInstance(t)
		s, err := malleable.ListSchedule(inst, drawCounts(t, inst), inst.Depths())
		require.NoError(t, err)

		c := malleable.Compact(inst, s)
		require.NoError(t, c.Validate(inst))
		require.LessOrEqual(t, c.Makespan(), s.Makespan())

		before := s.ByJob(inst.N())
		for _, e := range c.Entries {
			require.LessOrEqual(t, e.Start, before[e.Job].Start)
			require.Equal(t, before[e.Job].Count, e.Count)
		}
	})
}
