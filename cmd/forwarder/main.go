package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chat-forwarder/cmd/forwarder/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(commands.ExecuteContext(ctx))
}
