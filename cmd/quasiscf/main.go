// Command quasiscf reduces the built-in DAE example pairs to QuasiSCF.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/njchilds90/quasiscf/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
