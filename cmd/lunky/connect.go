package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/modlunky/lunky/client"
	"github.com/modlunky/lunky/logger"
	"github.com/modlunky/lunky/manager"
)

var (
	connectClient string
	connectPoll   time.Duration
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Run the Spelunky 99 client until it exits or you press Ctrl-C",
	Args:  cobra.NoArgs,
	RunE:  runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectClient, "client", "", "Client executable (default: next to the launcher)")
	connectCmd.Flags().DurationVar(&connectPoll, "poll", 0, "Liveness poll interval (default: config or 1s)")
	setFlagAliases(connectCmd.Flags(), map[string]string{"exe": "client"})
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if connectClient != "" {
		abs, err := filepath.Abs(connectClient)
		if err != nil {
			return err
		}
		cfg.SetClientPath(abs)
	}

	interval := connectPoll
	if interval <= 0 {
		interval = cfg.GetPollInterval()
	}

	out := cmd.OutOrStdout()
	sink := &sessionSink{
		terminal: &terminalSink{out: out, errOut: cmd.ErrOrStderr()},
		main:     client.NewLogSink(logger.WithComponent("client")),
	}
	closed := make(chan *client.Session, 1)

	m := manager.New(cfg, client.New(sink),
		manager.WithOnConnected(sink.attach),
		manager.WithOnClosed(func(s *client.Session) {
			sink.detach()
			closed <- s
		}),
	)

	if err := m.Connect(cmd.Context()); err != nil {
		var launchErr *client.LaunchError
		if errors.As(err, &launchErr) {
			// Already reported through the sink.
			cmd.SilenceErrors = true
			return &exitError{code: 1, msg: err.Error()}
		}
		return err
	}

	sess := m.Session()
	fmt.Fprintln(out, render(mutedStyle, fmt.Sprintf("client started (pid %d)", sess.PID())))

	watchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Watch(watchCtx, interval)

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interrupted := sigCtx.Done()
	stopped := false
	for {
		select {
		case <-interrupted:
			fmt.Fprintln(out, render(mutedStyle, "disconnecting..."))
			m.Disconnect()
			interrupted = nil
			stopped = true
		case s := <-closed:
			fmt.Fprintln(out, render(mutedStyle, "client closed"))
			if code := s.ExitCode(); code != 0 && !stopped {
				msg := fmt.Sprintf("client exited with code %d", code)
				if code < 0 {
					code = 1
				}
				return &exitError{code: code, msg: msg}
			}
			return nil
		}
	}
}
