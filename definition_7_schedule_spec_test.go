package scheduler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadScheduleSpecYAML(t *testing.T) {
	input := `
frame:
  assigned_time: 40
weld:
  resource_overrides:
    welder: {min: 2, max: 3}
    carpenter:
      min: 0
      max: 1
`

	spec, errLoad := LoadScheduleSpecYAML(strings.NewReader(input))
	require.NoError(t, errLoad)
	require.Len(t, spec, 2)

	require.EqualValues(t, 40, spec.Get("frame").AssignedTime)
	require.Empty(t, spec.Get("frame").ResourceOverrides)

	require.Equal(t,
		map[ResourceKind]WorkerRange{
			_Welder:    {Min: 2, Max: 3},
			_Carpenter: {Min: 0, Max: 1},
		},
		spec.Get("weld").ResourceOverrides,
	)

	require.Zero(t, spec.Get("missing").AssignedTime)
}

func TestLoadScheduleSpecYAMLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "1. Not a mapping",
			input: "- a\n- b\n",
		},
		{
			name:  "2. Negative assigned time",
			input: "frame:\n  assigned_time: -1\n",
		},
		{
			name:  "3. Override minimum above maximum",
			input: "weld:\n  resource_overrides:\n    welder: {min: 3, max: 2}\n",
		},
		{
			name:  "4. Override with zero maximum",
			input: "weld:\n  resource_overrides:\n    welder: {min: 0}\n",
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name,
			func(t *testing.T) {
				spec, errLoad := LoadScheduleSpecYAML(strings.NewReader(tt.input))
				require.Error(t, errLoad)
				require.Nil(t, spec)
			},
		)
	}
}

func TestScheduleSpec(t *testing.T) {
	t.Run(
		"1. Empty input",
		func(t *testing.T) {
			spec, errLoad := LoadScheduleSpecYAML(strings.NewReader(""))
			require.NoError(t, errLoad)
			require.Empty(t, spec)
		},
	)

	t.Run(
		"2. Nil spec",
		func(t *testing.T) {
			var spec ScheduleSpec

			require.NoError(t, spec.Validate())
			require.Zero(t, spec.Get("any"))
		},
	)

	t.Run(
		"3. Unknown task",
		func(t *testing.T) {
			graph := newTestGraph(t, &Task{ID: "frame"})

			require.NoError(t,
				ScheduleSpec{"frame": {AssignedTime: 1}}.validateAgainst(graph),
			)
			require.Error(t,
				ScheduleSpec{"roof": {AssignedTime: 1}}.validateAgainst(graph),
			)
		},
	)
}
