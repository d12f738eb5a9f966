package scheduler

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	goerrors "github.com/TudorHulban/go-errors"
)

type ResourceKind string

// WorkerRange is the inclusive [Min, Max] count of workers of one kind a task accepts.
type WorkerRange struct {
	Min uint16 `yaml:"min"`
	Max uint16 `yaml:"max"`
}

func (r WorkerRange) IsValid() error {
	if r.Max == 0 {
		return goerrors.ErrInvalidInput{
			Caller:     "IsValid - WorkerRange",
			InputName:  "Max",
			InputValue: r.Max,
			Issue:      errors.New("maximum worker count must be positive"),
		}
	}

	if r.Min > r.Max {
		return goerrors.ErrInvalidInput{
			Caller:     "IsValid - WorkerRange",
			InputName:  "Min",
			InputValue: r.Min,
			Issue:      errors.New("minimum worker count greater than maximum"),
		}
	}

	return nil
}

// Narrow intersects the range with an override.
// Second return is false when the intersection is empty.
func (r WorkerRange) Narrow(override WorkerRange) (WorkerRange, bool) {
	result := WorkerRange{
		Min: max(r.Min, override.Min),
		Max: min(r.Max, override.Max),
	}

	return result,
		result.Min <= result.Max && result.Max > 0
}

func (r WorkerRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// Team is a concrete assignment of worker counts per resource kind.
type Team map[ResourceKind]uint16

func (t Team) Clone() Team {
	result := make(Team, len(t))

	for kind, count := range t {
		result[kind] = count
	}

	return result
}

func (t Team) Kinds() []ResourceKind {
	result := make([]ResourceKind, 0, len(t))

	for kind := range t {
		result = append(result, kind)
	}

	slices.Sort(result)

	return result
}

// Size returns the total number of workers in the team.
func (t Team) Size() int {
	var result int

	for _, count := range t {
		result = result + int(count)
	}

	return result
}

// Key is a canonical representation, usable as map key.
func (t Team) Key() string {
	var sb strings.Builder

	for ix, kind := range t.Kinds() {
		if ix > 0 {
			sb.WriteString(",")
		}

		sb.WriteString(
			fmt.Sprintf(
				"%s=%d",

				kind,
				t[kind],
			),
		)
	}

	return sb.String()
}

func (t Team) Equal(other Team) bool {
	return t.Key() == other.Key()
}

func (t Team) String() string {
	return "Team{" + t.Key() + "}"
}

// isSmallerThan orders teams by total workers then by key.
func (t Team) isSmallerThan(other Team) bool {
	if t.Size() != other.Size() {
		return t.Size() < other.Size()
	}

	return t.Key() < other.Key()
}
