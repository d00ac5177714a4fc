// Command boxscore-sync keeps the local basketball statistics store in step with
// the upstream stats provider and exposes the operator control surface.
package main

import (
	"os"

	"github.com/giorgioGunawan/boxscore-backend/cmd/boxscore-sync/cli"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

func main() {
	defer logger.Sync()
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
