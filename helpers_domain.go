package scheduler

import (
	"fmt"
)

// checkTeamWithinBounds guards against optimizers returning teams outside the selected bounds.
func checkTeamWithinBounds(team, minTeam, maxTeam Team) error {
	if len(team) != len(maxTeam) {
		return fmt.Errorf(
			"team %s does not cover the kinds of %s",

			team.String(),
			maxTeam.String(),
		)
	}

	for kind, count := range team {
		upper, exists := maxTeam[kind]
		if !exists || count < minTeam[kind] || count > upper {
			return fmt.Errorf(
				"team %s outside bounds %s - %s",

				team.String(),
				minTeam.String(),
				maxTeam.String(),
			)
		}
	}

	return nil
}
