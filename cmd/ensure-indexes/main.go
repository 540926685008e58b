// Command ensure-indexes creates the users and messages indexes the
// application relies on.
package main

import (
	"os"

	"github.com/giahuy0968/GrowNet-sub001/internal/cli"
	"github.com/giahuy0968/GrowNet-sub001/internal/config"
	"github.com/giahuy0968/GrowNet-sub001/internal/migrate"
)

func main() {
	os.Exit(cli.Run("ensure-indexes", func(*config.Config) ([]migrate.Step, error) {
		return []migrate.Step{migrate.EnsureIndexes{}}, nil
	}))
}
