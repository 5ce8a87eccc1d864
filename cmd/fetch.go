package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	cmdcommon "github.com/warpdl/warpreel/cmd/common"
	"github.com/warpdl/warpreel/common"
	"github.com/warpdl/warpreel/pkg/fetch"
)

var (
	fetchURL     string
	fetchDir     string
	fetchVerbose bool
)

var fetchFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "url, u",
		Value:       DEF_URL,
		Usage:       "remote video url",
		EnvVar:      common.URLEnv,
		Destination: &fetchURL,
	},
	dirFlag(&fetchDir),
	verboseFlag(&fetchVerbose),
}

func fetchVideo(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cmdcommon.Help(ctx)
	}
	dir, err := resolveDir(fetchDir)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "fetch", "resolve_dir", err)
		return nil
	}
	l := newCLILogger("fetch", fetchVerbose)
	defer l.Close()

	sigCtx, cancel := signalContext()
	defer cancel()

	p := mpb.New(mpb.WithOutput(stdout), mpb.WithWidth(64))
	// set by StartHandler on the transfer goroutine, read after Wait
	var bar *mpb.Bar

	c := fetch.NewController(fetch.NewStore(appFs, dir, common.DefaultFileName, l), &fetch.ControllerOpts{
		Logger: l,
		Handlers: &fetch.Handlers{
			StartHandler: func(_ string, length int64) {
				bar = cmdcommon.InitBar(p, "", length)
			},
			ProgressHandler: func(_ string, n int) {
				if bar != nil {
					bar.IncrBy(n)
				}
			},
		},
	})
	if _, err := c.Fetch(sigCtx, fetchURL); err != nil {
		p.Wait()
		return cmdcommon.PrintErrWithCmdHelp(ctx, err)
	}
	c.Wait()

	st := c.State()
	if bar != nil {
		if st.Kind == fetch.KindDownloaded {
			bar.SetTotal(-1, true)
		} else {
			bar.Abort(false)
		}
	}
	p.Wait()

	if st.Kind != fetch.KindDownloaded {
		return fmt.Errorf("fetch %s: %w", fetchURL, st.Err)
	}
	size := "unknown size"
	if fi, err := c.Store().Stat(); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	fmt.Fprintf(stdout, "Saved %s (%s)\n", c.Store().Path(), size)
	return nil
}
