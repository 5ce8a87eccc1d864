package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/warpreel/cmd/common"
	"github.com/warpdl/warpreel/common"
	"github.com/warpdl/warpreel/internal/flow"
	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/playback"
)

var (
	playDir           string
	playPreviousFloor int
	playShowPosition  bool
	playVerbose       bool
)

// positionInterval is how often --show-position prints. Replaced in tests.
var positionInterval = time.Second

var playFlags = []cli.Flag{
	dirFlag(&playDir),
	cli.IntFlag{
		Name:        "previous-floor",
		Usage:       "lowest segment index that previous can return to",
		Destination: &playPreviousFloor,
	},
	cli.BoolFlag{
		Name:        "show-position",
		Usage:       "print the media position every second while a segment plays",
		Destination: &playShowPosition,
	},
	verboseFlag(&playVerbose),
}

var errUnknownCommand = errors.New("unknown command, use n, p, s, r or q")

func play(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cmdcommon.Help(ctx)
	}
	dir, err := resolveDir(playDir)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "play", "resolve_dir", err)
		return nil
	}
	l := newCLILogger("play", playVerbose)
	defer l.Close()

	store := fetch.NewStore(appFs, dir, common.DefaultFileName, l)
	if !store.Exists() {
		return fmt.Errorf("%s: %w, run \"%s fetch\" first", store.Path(), playback.ErrMediaUnavailable, ctx.App.HelpName)
	}

	sigCtx, cancel := signalContext()
	defer cancel()

	out := &syncWriter{w: stdout}
	finished := make(chan struct{}, 1)
	var total int
	opts := &flow.PlayerScreenOpts{
		PreviousFloor: playPreviousFloor,
		Clock:         newClock(),
		Logger:        l,
		Handlers: &playback.Handlers{
			PauseLabelHandler: func(text string) { fmt.Fprintln(out, text) },
			TimerLabelHandler: func(text string) { fmt.Fprintln(out, text) },
			PhaseChangedHandler: func(s playback.State) {
				fmt.Fprintf(out, "Segment %d/%d: %s\n", s.Index+1, total, s.Phase)
				if s.Phase == playback.PhaseStopped {
					select {
					case finished <- struct{}{}:
					default:
					}
				}
			},
		},
	}
	if playShowPosition {
		opts.PositionInterval = positionInterval
		opts.PositionHandler = func(pos time.Duration) {
			fmt.Fprintf(out, "Position: %s\n", pos.Truncate(time.Second))
		}
	}
	ps, err := flow.NewPlayerScreen(sigCtx, store, opts)
	if err != nil {
		return err
	}
	defer ps.Close()
	sched := ps.Scheduler()
	total = len(sched.Segments())

	if err := ps.Open(); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	lines := readCommands(stdin, done)
	// once stdin is closed, playback runs until it stops on its own
	var eof bool
	for {
		select {
		case <-sigCtx.Done():
			return nil
		case <-finished:
			if eof && stopped(sched) {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				lines, eof = nil, true
				if stopped(sched) {
					return nil
				}
				continue
			}
			quit, err := runPlayCommand(sched, line)
			if err != nil {
				cmdcommon.PrintRuntimeErr(ctx, "play", line, err)
			}
			if quit {
				return nil
			}
		}
	}
}

func runPlayCommand(s *playback.Scheduler, line string) (quit bool, err error) {
	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "n", "next":
		return false, s.Next()
	case "p", "previous":
		return false, s.Previous()
	case "s", "stop":
		return false, s.Stop()
	case "r", "restart":
		return false, s.Start()
	case "q", "quit":
		return true, nil
	}
	return false, errUnknownCommand
}

func stopped(s *playback.Scheduler) bool {
	st, err := s.Snapshot()
	return err != nil || st.Phase == playback.PhaseStopped
}

// readCommands sends each trimmed line of r until EOF or done is closed.
func readCommands(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-done:
				return
			}
		}
	}()
	return lines
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
