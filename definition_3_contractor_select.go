package scheduler

import (
	"errors"

	goerrors "github.com/TudorHulban/go-errors"
)

type ParamsSelectContractor struct {
	Contractors []*Contractor
	Task        *Task
	Spec        ScheduleSpec
}

type ResponseSelectContractor struct {
	Contractor  *Contractor
	MinTeam     Team
	MaxTeam     Team
	DefaultTeam Team
}

// GetRequiredRanges returns the task requirements narrowed by the ScheduleSpec overrides.
func GetRequiredRanges(task *Task, spec ScheduleSpec) (map[ResourceKind]WorkerRange, error) {
	result := make(map[ResourceKind]WorkerRange, len(task.Requirements))

	workSpec := spec.Get(task.ID)

	for _, kind := range task.GetNeededResourceKinds() {
		requirement := task.Requirements[kind]

		override, hasOverride := workSpec.ResourceOverrides[kind]
		if !hasOverride {
			result[kind] = requirement

			continue
		}

		narrowed, isNonEmpty := requirement.Narrow(override)
		if !isNonEmpty {
			return nil,
				goerrors.ErrInvalidInput{
					Caller:     "GetRequiredRanges",
					InputName:  "ResourceOverrides - " + string(kind),
					InputValue: override.String(),
					Issue: errors.New(
						"override does not intersect task requirement " + requirement.String(),
					),
				}
		}

		result[kind] = narrowed
	}

	return result,
		nil
}

// SelectContractor picks the single contractor able to supply the minimum team
// for every required kind, preferring the largest aggregate capacity headroom.
// Ties go to the smaller contractor ID.
func SelectContractor(params *ParamsSelectContractor) (*ResponseSelectContractor, error) {
	ranges, errRanges := GetRequiredRanges(params.Task, params.Spec)
	if errRanges != nil {
		return nil,
			errRanges
	}

	kinds := params.Task.GetNeededResourceKinds()

	var chosen *Contractor

	bestHeadroom := -1

	for _, contractor := range params.Contractors {
		if contractor == nil {
			continue
		}

		headroom, isFeasible := getHeadroom(contractor, ranges)
		if !isFeasible {
			continue
		}

		if headroom > bestHeadroom ||
			(headroom == bestHeadroom && contractor.ID < chosen.ID) {
			chosen = contractor
			bestHeadroom = headroom
		}
	}

	if chosen == nil {
		return nil,
			ErrNoFeasibleContractor{
				TaskID:        params.Task.ID,
				ResourceKinds: kinds,
			}
	}

	result := ResponseSelectContractor{
		Contractor:  chosen,
		MinTeam:     make(Team, len(kinds)),
		MaxTeam:     make(Team, len(kinds)),
		DefaultTeam: make(Team, len(kinds)),
	}

	for _, kind := range kinds {
		capacity := chosen.GetCapacity(kind)

		result.MinTeam[kind] = min(ranges[kind].Min, capacity)
		result.MaxTeam[kind] = min(ranges[kind].Max, capacity)
		result.DefaultTeam[kind] = result.MinTeam[kind] +
			(result.MaxTeam[kind]-result.MinTeam[kind])/2
	}

	return &result,
		nil
}

func getHeadroom(contractor *Contractor, ranges map[ResourceKind]WorkerRange) (int, bool) {
	var result int

	for kind, requirement := range ranges {
		capacity := contractor.GetCapacity(kind)

		if capacity < requirement.Min || capacity == 0 {
			return 0, false
		}

		result = result + int(capacity) - int(requirement.Min)
	}

	return result, true
}
