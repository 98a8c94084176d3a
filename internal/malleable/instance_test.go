package malleable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"malleableSched/internal/malleable"
)

func TestNewInstanceRejectsMalformedInput(t *testing.T) {
	valid := []malleable.Job{{ID: 1, Times: []int{3, 2}}, {ID: 2, Times: []int{5, 3}}}

	cases := []struct {
		name        string
		machines    int
		jobs        []malleable.Job
		constraints []malleable.Constraint
		width       int
	}{
		{name: "no machines", machines: 0, jobs: valid},
		{name: "no jobs", machines: 2},
		{name: "negative width", machines: 2, jobs: valid, width: -1},
		{name: "duplicate id", machines: 2, jobs: []malleable.Job{{ID: 1, Times: []int{1, 1}}, {ID: 1, Times: []int{1, 1}}}},
		{name: "short times", machines: 2, jobs: []malleable.Job{{ID: 1, Times: []int{1}}}},
		{name: "zero time", machines: 2, jobs: []malleable.Job{{ID: 1, Times: []int{2, 0}}}},
		{name: "unknown job", machines: 2, jobs: valid, constraints: []malleable.Constraint{{Before: 1, After: 7}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := malleable.NewInstance(tc.machines, tc.jobs, tc.constraints, tc.width)
			require.ErrorIs(t, err, malleable.ErrInvalidInstance)
		})
	}
}

func TestNewInstanceRejectsCycles(t *testing.T) {
	jobs := []malleable.Job{{ID: 1, Times: []int{1}}, {ID: 2, Times: []int{1}}, {ID: 3, Times: []int{1}}}

	_, err := malleable.NewInstance(1, jobs, []malleable.Constraint{{Before: 1, After: 1}}, 0)
	require.ErrorIs(t, err, malleable.ErrCyclicPrecedence)

	_, err = malleable.NewInstance(1, jobs, []malleable.Constraint{{Before: 1, After: 2}, {Before: 2, After: 3}, {Before: 3, After: 1}}, 0)
	require.ErrorIs(t, err, malleable.ErrCyclicPrecedence)
	require.ErrorIs(t, err, malleable.ErrInvalidInstance)
}

func TestDuplicateConstraintsAreMerged(t *testing.T) {
	inst := mustInstance(t, 1,
		[]malleable.Job{{ID: 10, Times: []int{1}}, {ID: 20, Times: []int{1}}},
		[]malleable.Constraint{{Before: 10, After: 20}, {Before: 10, After: 20}},
	)
	require.Len(t, inst.Successors(0), 1)
	require.Len(t, inst.Predecessors(1), 1)
}

func TestInstanceHelpers(t *testing.T) {
	inst := mustInstance(t, 3, []malleable.Job{{ID: 7, Times: []int{9, 5, 5}}}, nil)

	i, ok := inst.Index(7)
	require.True(t, ok)
	require.Equal(t, 0, i)
	_, ok = inst.Index(8)
	require.False(t, ok)

	require.Equal(t, 5, inst.Time(0, 2))
	require.Equal(t, 15, inst.Work(0, 3))
	require.Equal(t, 2, inst.FastestCount(0, 3))
	require.Equal(t, 1, inst.FastestCount(0, 1))
	require.Equal(t, 5, inst.MinTime(0))
	require.Equal(t, 9, inst.MinWork(0))
}

func TestWithMachines(t *testing.T) {
	inst := mustInstance(t, 2,
		[]malleable.Job{{ID: 1, Times: []int{6, 4}}, {ID: 2, Times: []int{2, 1}}},
		[]malleable.Constraint{{Before: 1, After: 2}},
	)

	wider, err := inst.WithMachines(4)
	require.NoError(t, err)
	require.Equal(t, []int{6, 4, 4, 4}, wider.Jobs[0].Times)
	require.True(t, wider.Less(0, 1))

	narrower, err := inst.WithMachines(1)
	require.NoError(t, err)
	require.Equal(t, []int{2}, narrower.Jobs[1].Times)
	require.Equal(t, []int{6, 4}, inst.Jobs[0].Times)
}
