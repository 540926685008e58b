// Command assign-user-roles gives a role to every user that has none.
package main

import (
	"os"

	"github.com/giahuy0968/GrowNet-sub001/internal/cli"
	"github.com/giahuy0968/GrowNet-sub001/internal/config"
	"github.com/giahuy0968/GrowNet-sub001/internal/migrate"
)

func main() {
	os.Exit(cli.Run("assign-user-roles", func(*config.Config) ([]migrate.Step, error) {
		return []migrate.Step{migrate.AssignUserRoles{}}, nil
	}))
}
