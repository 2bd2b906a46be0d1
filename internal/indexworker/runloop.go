package indexworker

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"crawlindex/internal/frame"
)

// livenessInterval is how often the worker checks whether it has been
// reparented to init (getppid() == 1), meaning its coordinator died
// without signaling it. Modeled as a ticker instead of a self-delivered
// SIGALRM, since a timed event serves the same purpose with less
// signal-handling complexity.
var livenessInterval = 30 * time.Second

// Run is the worker's event loop: block for SIGUSR1 ("command ready"),
// recv one command frame, dispatch it through Handle, and send the
// response. SIGUSR2 marks the in-flight (or next) SEARCH's deadline as
// exceeded. SIGTERM ends the loop cleanly.
//
// SIGUSR2 is watched by its own goroutine on its own channel rather
// than folded into the main select: the main loop spends most of its
// time blocked inside dispatch() while a SEARCH assembles its result,
// and a SIGUSR2 arriving during that window must flip deadlineFired
// immediately so SearchWithDeadline's post-assembly check can still see
// it. Routing it through the shared sigCh would instead queue it behind
// whatever command is in flight, so it would only be observed after
// that command had already sent its full response — and would then be
// misread as belonging to the next, unrelated command.
func Run(ctx context.Context, reader *frame.Reader, writer *frame.Writer, w *Worker, log zerolog.Logger) error {
	sigCh := make(chan os.Signal, 8)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	usr2Ch := make(chan os.Signal, 8)
	signal.Notify(usr2Ch, syscall.SIGUSR2)
	defer signal.Stop(usr2Ch)

	var deadlineFired int32
	usr2Done := make(chan struct{})
	defer close(usr2Done)
	go func() {
		for {
			select {
			case <-usr2Ch:
				atomic.StoreInt32(&deadlineFired, 1)
			case <-usr2Done:
				return
			}
		}
	}()

	liveness := time.NewTicker(livenessInterval)
	defer liveness.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-liveness.C:
			if os.Getppid() == 1 {
				log.Warn().Msg("parent reparented to init, exiting")
				return nil
			}

		case sig := <-sigCh:
			switch sig {
			case syscall.SIGTERM:
				log.Info().Msg("worker received shutdown signal")
				return nil

			case syscall.SIGUSR1:
				cmd, err := reader.Recv()
				if err != nil {
					log.Warn().Err(err).Msg("command recv failed")
					continue
				}
				resp := dispatch(cmd, w, &deadlineFired)
				if err := writer.SendAll(resp); err != nil {
					log.Warn().Err(err).Msg("response send failed")
				}
			}
		}
	}
}

func dispatch(cmd []string, w *Worker, deadlineFired *int32) []string {
	if len(cmd) > 0 && cmd[0] == "CMD:SEARCH" {
		return w.SearchWithDeadline(cmd[1:], deadlineFired)
	}
	return w.Handle(cmd)
}
