// Command migrate-messages backfills readBy, type and timestamps on messages
// stored before the current message schema.
package main

import (
	"os"

	"github.com/giahuy0968/GrowNet-sub001/internal/cli"
	"github.com/giahuy0968/GrowNet-sub001/internal/config"
	"github.com/giahuy0968/GrowNet-sub001/internal/migrate"
)

func main() {
	os.Exit(cli.Run("migrate-messages", func(*config.Config) ([]migrate.Step, error) {
		return migrate.MessageSteps(), nil
	}))
}
