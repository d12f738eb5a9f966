package scheduler

import (
	"fmt"
	"slices"
	"strings"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
)

type Contractor struct {
	ID       string
	Name     string
	Capacity map[ResourceKind]uint16 // maximum concurrently employable workers per kind
}

type ParamsNewContractor struct {
	ID       string                  `valid:"required"`
	Name     string                  `valid:"-"`
	Capacity map[ResourceKind]uint16 `valid:"-"`
}

func (param *ParamsNewContractor) IsValid() error {
	if _, errValidation := govalidator.ValidateStruct(param); errValidation != nil {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewContractor",
			Issue:  errValidation,
		}
	}

	if len(param.Capacity) == 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewContractor",
			Issue: goerrors.ErrNilInput{
				InputName: "Capacity",
			},
		}
	}

	for kind := range param.Capacity {
		if len(kind) == 0 {
			return goerrors.ErrValidation{
				Caller: "IsValid - ParamsNewContractor",
				Issue: goerrors.ErrNilInput{
					InputName: "Capacity - resource kind",
				},
			}
		}
	}

	return nil
}

func NewContractor(params *ParamsNewContractor) (*Contractor, error) {
	if errValidation := params.IsValid(); errValidation != nil {
		return nil,
			errValidation
	}

	capacity := make(map[ResourceKind]uint16, len(params.Capacity))

	for kind, count := range params.Capacity {
		capacity[kind] = count
	}

	return &Contractor{
			ID:       params.ID,
			Name:     params.Name,
			Capacity: capacity,
		},
		nil
}

// GetCapacity returns zero for kinds the contractor does not employ.
func (c *Contractor) GetCapacity(kind ResourceKind) uint16 {
	return c.Capacity[kind]
}

func (c *Contractor) GetResourceKindsSorted() []ResourceKind {
	result := make([]ResourceKind, 0, len(c.Capacity))

	for kind := range c.Capacity {
		result = append(result, kind)
	}

	slices.Sort(result)

	return result
}

func (c *Contractor) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Contractor{ID: %q", c.ID))

	for _, kind := range c.GetResourceKindsSorted() {
		sb.WriteString(
			fmt.Sprintf(
				", %s: %d",

				kind,
				c.Capacity[kind],
			),
		)
	}

	sb.WriteString("}")

	return sb.String()
}
