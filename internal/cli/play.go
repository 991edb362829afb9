package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/reactimer/internal/dependencies/clock"
	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/services/round"
)

func newPlayCmd() *cobra.Command {
	var name string
	var noSave bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one round: stop the countdown before it reaches zero",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutput(cmd)
			progress := cmd.ErrOrStderr()
			if out.JSON() {
				progress = io.Discard
			}

			runner := newRoundRunner(clock.New(), cmd.InOrStdin(), progress)
			state, remaining, err := runner.Run()
			if err != nil {
				return err
			}

			result := PlayResult{State: state.String()}
			if state == round.Stopped {
				result.RemainingMs = remaining
				result.Score = model.ComputeScore(remaining)

				if !noSave {
					saved, err := submitScore(name, remaining)
					if err != nil {
						return fmt.Errorf("failed to save score: %w", err)
					}
					result.Saved = true
					result.Entries = saved.Entries
				}
			}

			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the saved score")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the score")

	return cmd
}

// roundRunner drives one round from line input: the first line starts it, the next stops it
type roundRunner struct {
	round    *round.Round
	in       *bufio.Reader
	progress io.Writer
	expired  chan struct{}
}

func newRoundRunner(clk clock.Clock, in io.Reader, progress io.Writer) *roundRunner {
	rr := &roundRunner{
		in:       bufio.NewReader(in),
		progress: progress,
		expired:  make(chan struct{}, 1),
	}

	cfg := round.DefaultConfig()
	cfg.OnTick = func(remaining time.Duration) {
		_, _ = fmt.Fprintf(rr.progress, "\r%5.2fs ", remaining.Seconds())
	}
	cfg.OnExpire = func() {
		rr.expired <- struct{}{}
	}
	rr.round = round.New(clk, cfg)

	return rr
}

// Run plays a round and returns its final state and, when stopped, the remaining milliseconds
func (rr *roundRunner) Run() (round.State, int64, error) {
	_, _ = fmt.Fprintln(rr.progress, "Press Enter to start the countdown")
	if _, err := rr.in.ReadString('\n'); err != nil {
		return round.Idle, 0, fmt.Errorf("waiting for start: %w", err)
	}

	rr.round.Start()
	_, _ = fmt.Fprintln(rr.progress, "Go! Press Enter to stop")

	lines := make(chan error, 1)
	go func() {
		_, err := rr.in.ReadString('\n')
		lines <- err
	}()

	select {
	case <-rr.expired:
		_, _ = fmt.Fprintln(rr.progress)
		return round.Failed, 0, nil

	case err := <-lines:
		_, _ = fmt.Fprintln(rr.progress)
		if err != nil && !errors.Is(err, io.EOF) {
			rr.round.Reset()
			return round.Idle, 0, fmt.Errorf("waiting for stop: %w", err)
		}
		remaining, err := rr.round.Stop()
		if errors.Is(err, round.ErrExpired) {
			return round.Failed, 0, nil
		}
		if err != nil {
			// The refresh loop failed the round between the keypress and Stop
			return rr.round.State(), 0, nil
		}
		return round.Stopped, remaining, nil
	}
}
