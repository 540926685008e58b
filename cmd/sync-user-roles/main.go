// Command sync-user-roles sets user roles from the JSON export named by
// ROLES_EXPORT_FILE, matching users by email.
package main

import (
	"os"

	"github.com/giahuy0968/GrowNet-sub001/internal/cli"
	"github.com/giahuy0968/GrowNet-sub001/internal/config"
	"github.com/giahuy0968/GrowNet-sub001/internal/migrate"
	"github.com/giahuy0968/GrowNet-sub001/internal/rolesync"
)

func main() {
	os.Exit(cli.Run("sync-user-roles", func(cfg *config.Config) ([]migrate.Step, error) {
		step, err := rolesync.NewStep(cfg.RolesFile)
		if err != nil {
			return nil, err
		}
		return []migrate.Step{step}, nil
	}))
}
