package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/makibytes/xwait/broker"
	"github.com/makibytes/xwait/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := broker.GetRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error("%s", err)
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}
