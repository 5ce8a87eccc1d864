package cmd

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/warpdl/warpreel/common"
	"github.com/warpdl/warpreel/pkg/logger"
	"github.com/warpdl/warpreel/pkg/playback"
)

const (
	DEF_URL    = "https://m4pmedia.com/t7/video11.mp4"
	DEF_LISTEN = "127.0.0.1:7654"
)

const DESCRIPTION = `
Warpreel downloads a single video once and plays it back as a
sequence of segments. Each segment is announced by a short pause
countdown before its play window starts.
`

const (
	FetchDescription = `The fetch command downloads the video into the media
directory, replacing any previous copy once the transfer has
completed. Nothing is written when the transfer fails.

Example:
        warpreel fetch
        warpreel fetch --url https://domain.com/video.mp4

`
	PlayDescription = `The play command plays the downloaded video segment by
segment. Type a letter followed by enter to control it:

        n       next segment
        p       previous segment
        s       stop
        r       restart from the first segment
        q       quit

Example:
        warpreel play

`
	ServeDescription = `The serve command starts the JSON-RPC control server. The
same methods are available over HTTP at /jsonrpc and over
websocket at /jsonrpc/ws, where label updates are pushed as
notifications. Every request needs the bearer secret.

Example:
        warpreel serve --secret s3cr3t --listen 127.0.0.1:7654

`
	StatusDescription = `The status command reports whether the video is available
locally, where it is stored and how large it is.

Example:
        warpreel status

`
)

// Replaced in tests.
var (
	appFs  afero.Fs  = afero.NewOsFs()
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	newClock = func() playback.Clock { return playback.RealClock{} }

	signalContext = func() (context.Context, context.CancelFunc) {
		return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	}
)

// resolveDir returns dir, or the per-user config directory when dir is
// empty.
func resolveDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "warpreel"), nil
}

func dirFlag(dest *string) cli.StringFlag {
	return cli.StringFlag{
		Name:        "dir, d",
		Usage:       "media directory (default: user config dir)",
		EnvVar:      common.DirEnv,
		Destination: dest,
	}
}

func verboseFlag(dest *bool) cli.BoolFlag {
	return cli.BoolFlag{
		Name:        "verbose",
		Usage:       "log progress and errors to stderr",
		Destination: dest,
	}
}

// newCLILogger logs to stderr when verbose is set and discards otherwise.
func newCLILogger(component string, verbose bool) logger.Logger {
	if !verbose {
		return logger.NewNopLogger()
	}
	return logger.NewStandardLogger(log.New(stderr, "", log.LstdFlags)).Named(component)
}
