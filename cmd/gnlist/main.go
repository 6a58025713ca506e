// gnlist is a CLI which decodes, applies and exports guardian node list diffs.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/guardiannet/gnlist-engine/pkg/log"
)

func main() {
	logger, err := log.NewDefaultProductionLogger()
	if err != nil {
		panic(err)
	}
	app := cli.App{
		Usage: "Guardian node list diff tool",
		Commands: []*cli.Command{
			getDecodeCommand(),
			getApplyCommand(logger),
			getExportCommand(logger),
			getReplayCommand(logger),
			getResetCommand(logger),
		},
	}
	if err := app.Run(os.Args); err != nil {
		logger.Errorf("Fail running gnlist with %s", err)
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}
