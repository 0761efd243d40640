package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/remote-agent-terminal/patternrelay/internal/config"
	"github.com/remote-agent-terminal/patternrelay/internal/logging"
	"github.com/remote-agent-terminal/patternrelay/internal/repl"
	"github.com/remote-agent-terminal/patternrelay/internal/session"
)

// Time to wait for the close event to be logged before exiting.
const drainWait = 500 * time.Millisecond

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "patternrelay",
		Short:         "Interactive client that sends pattern commands to the relay",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	logger := logging.New(logging.ProfileRuntime, "client", os.Stdout)
	fmt.Println("Starting interactive pattern relay client...")

	sess := session.New(config.DefaultClient(), logger)
	if err := sess.Connect(context.Background()); err != nil {
		fmt.Println("Failed to connect to server. Make sure the server is running.")
		return nil
	}

	// Interrupts end the process without waiting for the blocked read.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		sess.Disconnect()
		os.Exit(0)
	}()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		repl.PrintBanner(os.Stdout)
	}

	loop := repl.NewLoop(os.Stdin, os.Stdout, sess, logger)
	if err := loop.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Reading input failed")
	}

	select {
	case <-sess.Done():
	case <-time.After(drainWait):
	}
	return nil
}
