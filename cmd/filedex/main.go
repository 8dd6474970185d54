// Command filedex is a thin CLI front end over the engine package,
// grounded on the teacher's cmd/lci/main.go urfave/cli wiring.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/filedex/internal/engine"
	"github.com/standardbeagle/filedex/internal/index"
)

func main() {
	app := &cli.App{
		Name:  "filedex",
		Usage: "index and search a local filesystem subtree",
		Commands: []*cli.Command{
			indexCommand(),
			searchCommand(),
			statsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("filedex failed", "error", err)
		os.Exit(1)
	}
}

func openEngine(ctx context.Context, root string) (*engine.Engine, error) {
	return engine.NewBuilder().WithRoot(root).Build(ctx)
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "walk and index a directory tree",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Value: ".", Usage: "directory to index"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			root := c.String("root")
			e, err := openEngine(ctx, root)
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := e.IndexRoot(ctx, root, index.WalkOptions{})
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d files, %d directories (%d errors, %d skipped)\n",
				stats.FilesIndexed, stats.DirsIndexed, stats.Errors, stats.Skipped)
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search the index",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Value: ".", Usage: "indexed directory"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			root := c.String("root")
			e, err := openEngine(ctx, root)
			if err != nil {
				return err
			}
			defer e.Close()

			q, err := engine.ParseQuery(c.Args().First())
			if err != nil {
				return err
			}
			resp, err := e.Search(ctx, q)
			if err != nil {
				return err
			}
			for _, r := range resp.Results {
				fmt.Printf("%.3f  %s\n", r.Score, r.Record.Path)
			}
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print index statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Value: ".", Usage: "indexed directory"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			root := c.String("root")
			e, err := openEngine(ctx, root)
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := e.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("files=%d dirs=%d bytes=%d bloom=%d cache=%d schema=v%d\n",
				stats.Store.TotalFiles, stats.Store.TotalDirs, stats.Store.TotalBytes,
				stats.BloomSize, stats.CacheSize, stats.Store.SchemaVersion)
			return nil
		},
	}
}
