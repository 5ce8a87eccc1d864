package cmd

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/warpreel/cmd/common"
	"github.com/warpdl/warpreel/common"
	"github.com/warpdl/warpreel/internal/server"
	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/logger"
)

var (
	serveListen        string
	serveSecret        string
	serveURL           string
	serveDir           string
	serveLogFile       string
	servePreviousFloor int
)

var serveFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "listen, l",
		Value:       DEF_LISTEN,
		Usage:       "address to listen on",
		EnvVar:      common.ListenEnv,
		Destination: &serveListen,
	},
	cli.StringFlag{
		Name:        "secret, s",
		Usage:       "bearer secret required by every request",
		EnvVar:      common.RPCSecretEnv,
		Destination: &serveSecret,
	},
	cli.StringFlag{
		Name:        "url, u",
		Value:       DEF_URL,
		Usage:       "remote video url",
		EnvVar:      common.URLEnv,
		Destination: &serveURL,
	},
	dirFlag(&serveDir),
	cli.StringFlag{
		Name:        "log-file",
		Usage:       "also append logs to this file",
		Destination: &serveLogFile,
	},
	cli.IntFlag{
		Name:        "previous-floor",
		Usage:       "lowest segment index that previous can return to",
		Destination: &servePreviousFloor,
	},
}

var errNoSecret = errors.New("an RPC secret is required, set --secret or " + common.RPCSecretEnv)

func serve(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cmdcommon.Help(ctx)
	}
	if serveSecret == "" {
		return cmdcommon.PrintErrWithCmdHelp(ctx, errNoSecret)
	}
	dir, err := resolveDir(serveDir)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "serve", "resolve_dir", err)
		return nil
	}

	var l logger.Logger = logger.NewStandardLogger(log.New(stderr, "", log.LstdFlags))
	if serveLogFile != "" {
		f, err := appFs.OpenFile(serveLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			cmdcommon.PrintRuntimeErr(ctx, "serve", "open_log", err)
			return nil
		}
		defer f.Close()
		l = logger.NewMultiLogger(l, logger.NewStandardLogger(log.New(f, "", log.LstdFlags)))
	}
	defer l.Close()

	ln, err := net.Listen("tcp", serveListen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", serveListen, err)
	}

	sigCtx, cancel := signalContext()
	defer cancel()

	srv := server.New(sigCtx, &server.Config{
		RPC: server.RPCConfig{
			Secret:    serveSecret,
			Version:   buildArgs.Version,
			Commit:    buildArgs.Commit,
			BuildType: buildArgs.BuildType,
			URL:       serveURL,
		},
		Store:         fetch.NewStore(appFs, dir, common.DefaultFileName, l),
		PreviousFloor: servePreviousFloor,
		Clock:         newClock(),
		Logger:        l,
	})
	l.Info("serving on %s, media in %s", ln.Addr(), dir)
	if err := srv.Serve(sigCtx, ln); err != nil {
		return err
	}
	l.Info("server stopped")
	return nil
}
