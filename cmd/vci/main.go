package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.lsp.dev/uri"
	"golang.org/x/sync/errgroup"

	"github.com/vcltools/vci/internal/config"
	"github.com/vcltools/vci/internal/intel"
	vcimcp "github.com/vcltools/vci/internal/mcp"
	"github.com/vcltools/vci/internal/oracle"
	"github.com/vcltools/vci/internal/oracle/treejson"
	"github.com/vcltools/vci/internal/server"
	"github.com/vcltools/vci/internal/types"
	"github.com/vcltools/vci/internal/version"
	"github.com/vcltools/vci/internal/workspace"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "vci:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "vci",
		Usage:                  "VCL code intelligence: language server, MCP server, and query CLI",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory",
				Value:   ".",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Override workspace include globs",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Additional workspace exclude globs",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Verbose logging",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			symbolsCommand(),
			definitionCommand(),
			referencesCommand(),
			renameCommand(),
			diagnosticsCommand(),
		},
	}
}

// loadConfig builds the merged configuration and applies CLI overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("root"))
	if err != nil {
		return nil, err
	}
	if include := c.StringSlice("include"); len(include) > 0 {
		cfg.Workspace.Include = include
	}
	if exclude := c.StringSlice("exclude"); len(exclude) > 0 {
		cfg.Workspace.Exclude = append(cfg.Workspace.Exclude, exclude...)
	}
	if c.Bool("verbose") {
		cfg.Log.Verbose = true
	}
	return cfg, nil
}

// setupLogging routes the standard logger per config. The LSP and MCP
// transports own stdout, so logs always go to stderr or a file.
func setupLogging(cfg *config.Config) error {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("vci ")
	if cfg.Log.Path == "" {
		log.SetOutput(os.Stderr)
		return nil
	}
	f, err := os.OpenFile(cfg.Log.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the language server on stdio",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			engine := intel.NewEngine(intel.DefaultOracle())
			scanner := workspace.NewScanner(cfg, engine)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				n, err := scanner.Scan(ctx)
				if err != nil {
					return err
				}
				log.Printf("indexed %d files under %s", n, cfg.Project.Root)
				if cfg.Workspace.Watch {
					watcher := workspace.NewWatcher(cfg, engine, scanner)
					if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
						return err
					}
				}
				return nil
			})
			g.Go(func() error {
				return server.New(cfg, engine, log.Default()).Serve(ctx)
			})

			err = g.Wait()
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			srv, err := vcimcp.NewServer(ctx, cfg)
			if err != nil {
				return err
			}
			if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

// openFile parses one file into a fresh engine for the ad-hoc query
// commands. With --ast-json the file is a parse-tree dump from the external
// linter and the decoder stands in for the parser.
func openFile(c *cli.Context, path string) (*intel.Engine, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, "", err
	}
	var o oracle.Oracle = intel.DefaultOracle()
	if c.Bool("ast-json") {
		o = treejson.New()
	}
	engine := intel.NewEngine(o)
	docURI := string(uri.File(abs))
	if err := engine.Open(c.Context, docURI, 0, string(content)); err != nil {
		return nil, "", err
	}
	return engine, docURI, nil
}

func astJSONFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "ast-json",
		Usage: "Treat FILE as a parse-tree JSON dump (external linter --dump-ast output) instead of VCL source",
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// position converts the CLI's 1-based line/column arguments.
func position(c *cli.Context) types.Position {
	return types.Position{Line: c.Int("line") - 1, Character: c.Int("column") - 1}
}

func positionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "line", Aliases: []string{"l"}, Usage: "1-based line", Required: true},
		&cli.IntFlag{Name: "column", Aliases: []string{"c"}, Usage: "1-based column", Required: true},
	}
}

func symbolsCommand() *cli.Command {
	return &cli.Command{
		Name:      "symbols",
		Usage:     "Print the symbol outline of a file",
		ArgsUsage: "FILE",
		Flags:     []cli.Flag{astJSONFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: vci symbols FILE")
			}
			engine, docURI, err := openFile(c, c.Args().First())
			if err != nil {
				return err
			}
			return printJSON(engine.DocumentSymbols(docURI))
		},
	}
}

func definitionCommand() *cli.Command {
	return &cli.Command{
		Name:      "definition",
		Usage:     "Resolve the declaration under a position",
		ArgsUsage: "FILE",
		Flags:     append(positionFlags(), astJSONFlag()),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: vci definition FILE -l LINE -c COLUMN")
			}
			engine, docURI, err := openFile(c, c.Args().First())
			if err != nil {
				return err
			}
			loc := engine.Definition(docURI, position(c))
			if loc == nil {
				return fmt.Errorf("no definition at %d:%d", c.Int("line"), c.Int("column"))
			}
			return printJSON(loc)
		},
	}
}

func referencesCommand() *cli.Command {
	return &cli.Command{
		Name:      "references",
		Usage:     "List occurrences of the symbol under a position",
		ArgsUsage: "FILE",
		Flags: append(positionFlags(),
			&cli.BoolFlag{Name: "no-declaration", Usage: "Exclude the declaration site"},
			astJSONFlag(),
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: vci references FILE -l LINE -c COLUMN")
			}
			engine, docURI, err := openFile(c, c.Args().First())
			if err != nil {
				return err
			}
			locs := engine.References(docURI, position(c), !c.Bool("no-declaration"))
			return printJSON(locs)
		},
	}
}

func renameCommand() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Print the edit set renaming the symbol under a position",
		ArgsUsage: "FILE NEW_NAME",
		Flags:     append(positionFlags(), astJSONFlag()),
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("usage: vci rename FILE NEW_NAME -l LINE -c COLUMN")
			}
			engine, docURI, err := openFile(c, c.Args().First())
			if err != nil {
				return err
			}
			edit := engine.Rename(docURI, position(c), c.Args().Get(1))
			if edit == nil {
				return fmt.Errorf("nothing renameable at %d:%d", c.Int("line"), c.Int("column"))
			}
			return printJSON(edit)
		},
	}
}

func diagnosticsCommand() *cli.Command {
	return &cli.Command{
		Name:      "diagnostics",
		Usage:     "Print parse diagnostics for a file",
		ArgsUsage: "FILE",
		Flags:     []cli.Flag{astJSONFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: vci diagnostics FILE")
			}
			engine, docURI, err := openFile(c, c.Args().First())
			if err != nil {
				return err
			}
			return printJSON(engine.Diagnostics(docURI))
		},
	}
}
