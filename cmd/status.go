package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/warpreel/cmd/common"
	"github.com/warpdl/warpreel/common"
	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/logger"
	"github.com/warpdl/warpreel/pkg/playback"
)

var statusDir string

var statusFlags = []cli.Flag{
	dirFlag(&statusDir),
}

func status(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cmdcommon.Help(ctx)
	}
	dir, err := resolveDir(statusDir)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "status", "resolve_dir", err)
		return nil
	}
	store := fetch.NewStore(appFs, dir, common.DefaultFileName, logger.NewNopLogger())

	txt := fmt.Sprintf(`
%s
 File      : %s
 Available : %s
`, cmdcommon.Beaut("Video Status", 40), store.Path(), yesNo(store.Exists()))
	if fi, err := store.Stat(); err == nil && store.Exists() {
		txt += fmt.Sprintf(" Size      : %s\n Modified  : %s\n",
			humanize.Bytes(uint64(fi.Size())), humanize.Time(fi.ModTime()))
	}
	txt += fmt.Sprintf(" Segments  : %d\n", len(playback.DefaultTable))
	fmt.Fprintln(stdout, txt)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
