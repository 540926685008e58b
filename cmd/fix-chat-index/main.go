// Command fix-chat-index replaces the unique participants index on chats
// with the non-unique (participants, updatedAt desc) compound index.
package main

import (
	"os"

	"github.com/giahuy0968/GrowNet-sub001/internal/cli"
	"github.com/giahuy0968/GrowNet-sub001/internal/config"
	"github.com/giahuy0968/GrowNet-sub001/internal/migrate"
)

func main() {
	os.Exit(cli.Run("fix-chat-index", func(*config.Config) ([]migrate.Step, error) {
		return []migrate.Step{migrate.RepairParticipantsIndex{}}, nil
	}))
}
