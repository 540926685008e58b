// Command hash-old-passwords replaces plaintext passwords with bcrypt hashes.
// The operation is irreversible.
package main

import (
	"os"

	"github.com/giahuy0968/GrowNet-sub001/internal/cli"
	"github.com/giahuy0968/GrowNet-sub001/internal/config"
	"github.com/giahuy0968/GrowNet-sub001/internal/migrate"
	"github.com/giahuy0968/GrowNet-sub001/internal/throttle"
)

func main() {
	os.Exit(cli.Run("hash-old-passwords", func(cfg *config.Config) ([]migrate.Step, error) {
		limiter := throttle.New(cfg.HashWritesPerSecond)
		return []migrate.Step{migrate.NewHashLegacyPasswords(cfg.BcryptCost, limiter)}, nil
	}))
}
