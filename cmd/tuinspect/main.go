// Command tuinspect is a developer harness over the code-intelligence core:
// it wires components A-H together the way an embedding IDE would and
// exposes each operation as a subcommand, for poking at a translation unit
// from a terminal instead of writing an embedder. It is not the consumer
// surface any of the components are designed against.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/opencodeintel/tucore/internal/completion"
	"github.com/opencodeintel/tucore/internal/config"
	"github.com/opencodeintel/tucore/internal/indexer"
	"github.com/opencodeintel/tucore/internal/liveunits"
	"github.com/opencodeintel/tucore/internal/marker"
	"github.com/opencodeintel/tucore/internal/navigator"
	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/symboldb"
	"github.com/opencodeintel/tucore/internal/types"
)

// harness is the component graph every subcommand shares, built once from
// the global --root/--resource-root/--display-diagnostics flags.
type harness struct {
	cfg   *config.Config
	index *nativeparser.Index
	db    *symboldb.DB
	live  *liveunits.Manager
	ix    *indexer.Indexer
}

func newHarness(c *cli.Context) *harness {
	nativeparser.InitProcess()

	cfg, err := config.LoadKDL(c.String("root"))
	if err != nil {
		cfg = config.Default()
	}
	idx := nativeparser.NewIndex(false, c.Bool("display-diagnostics"))
	db := symboldb.New()
	live := liveunits.New()
	ix := indexer.New(idx, db, live, cfg, c.String("resource-root"))
	return &harness{cfg: cfg, index: idx, db: db, live: live, ix: ix}
}

func defaultPart() types.ProjectPart {
	return types.ProjectPart{Name: "default", Language: types.LangCpp11}
}

func main() {
	app := &cli.App{
		Name:  "tuinspect",
		Usage: "inspect translation units, the symbol database, and search/completion/navigation against them",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Value: ".", Usage: "project root, searched for .tucore.kdl"},
			&cli.StringFlag{Name: "resource-root", Usage: "builtin-header resource root passed to compile-option synthesis"},
			&cli.BoolFlag{Name: "display-diagnostics", Usage: "set the native index's display-diagnostics flag (recorded only; the tree-sitter backend prints nothing)"},
			&cli.BoolFlag{Name: "json", Usage: "print results as JSON instead of a human-readable table"},
		},
		Commands: []*cli.Command{
			parseCommand,
			indexCommand,
			symbolsCommand,
			searchCommand,
			completeCommand,
			markersCommand,
			followCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tuinspect:", err)
		os.Exit(1)
	}
}

var parseCommand = &cli.Command{
	Name:      "parse",
	Usage:     "parse a file and print its diagnostics",
	ArgsUsage: "<file>",
	Action: func(c *cli.Context) error {
		file := c.Args().First()
		if file == "" {
			return cli.Exit("parse requires a file argument", 1)
		}
		h := newHarness(c)
		tu, err := h.index.Parse(nativeparser.ParseInput{FileName: file}, nativeparser.FlagNone)
		if err != nil {
			return err
		}
		defer tu.Dispose()

		diags := marker.Diagnostics(tu)
		return printResult(c, diags, func() {
			if len(diags) == 0 {
				fmt.Println("no diagnostics")
				return
			}
			for _, d := range diags {
				fmt.Printf("%s: %s: %s\n", d.Location, d.Severity, d.Spelling)
			}
		})
	},
}

var indexCommand = &cli.Command{
	Name:      "index",
	Usage:     "run a full regenerate over the given files and print the collected symbols",
	ArgsUsage: "<file> [file...]",
	Action: func(c *cli.Context) error {
		files := c.Args().Slice()
		if len(files) == 0 {
			return cli.Exit("index requires at least one file argument", 1)
		}
		h := newHarness(c)
		part := defaultPart()
		for _, f := range files {
			h.ix.AddFile(f, part, false)
		}
		if err := h.ix.Regenerate(context.Background()); err != nil {
			return err
		}
		syms := h.ix.AllFunctions()
		syms = append(syms, h.ix.AllClasses()...)
		syms = append(syms, h.ix.AllMethods()...)
		syms = append(syms, h.ix.AllConstructors()...)
		syms = append(syms, h.ix.AllDestructors()...)
		return printResult(c, syms, func() { printSymbols(syms) })
	},
}

var symbolsCommand = &cli.Command{
	Name:      "symbols",
	Usage:     "run evaluate_file on a single file and print the symbols it contributes",
	ArgsUsage: "<file>",
	Action: func(c *cli.Context) error {
		file := c.Args().First()
		if file == "" {
			return cli.Exit("symbols requires a file argument", 1)
		}
		h := newHarness(c)
		h.ix.AddFile(file, defaultPart(), false)
		if err := h.ix.EvaluateFile(context.Background(), file); err != nil {
			return err
		}
		syms := h.ix.AllFromFile(file)
		return printResult(c, syms, func() { printSymbols(syms) })
	},
}

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "index the given files then search the resulting symbols",
	ArgsUsage: "<query> <file> [file...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "regex", Usage: "treat query as a regular expression"},
		&cli.BoolFlag{Name: "whole-words", Usage: "require the match to be bounded by word breaks"},
	},
	Action: func(c *cli.Context) error {
		args := c.Args().Slice()
		if len(args) < 2 {
			return cli.Exit("search requires a query and at least one file argument", 1)
		}
		query, files := args[0], args[1:]

		if c.Bool("regex") {
			if _, err := regexp.Compile(query); err != nil {
				return cli.Exit(fmt.Sprintf("invalid --regex pattern: %v", err), 1)
			}
		}

		h := newHarness(c)
		part := defaultPart()
		for _, f := range files {
			h.ix.AddFile(f, part, false)
		}
		if err := h.ix.Regenerate(context.Background()); err != nil {
			return err
		}

		var matches []indexer.SearchMatch
		err := h.ix.SearchSymbols(context.Background(), indexer.SearchOptions{
			Query:      query,
			Regex:      c.Bool("regex"),
			WholeWords: c.Bool("whole-words"),
		}, func(chunk []indexer.SearchMatch) bool {
			matches = append(matches, chunk...)
			return true
		})
		if err != nil {
			return err
		}
		return printResult(c, matches, func() {
			for _, m := range matches {
				tag := ""
				if m.Fuzzy {
					tag = fmt.Sprintf(" (fuzzy %.2f)", m.Score)
				}
				fmt.Printf("%s %s at %s%s\n", m.Symbol.Kind, m.Symbol.QualifiedName(), m.Symbol.Location, tag)
			}
		})
	},
}

var completeCommand = &cli.Command{
	Name:      "complete",
	Usage:     "offer completions at a line:col position",
	ArgsUsage: "<file> <line> <col>",
	Action: func(c *cli.Context) error {
		file, line, col, err := fileLineCol(c)
		if err != nil {
			return err
		}
		h := newHarness(c)
		tu, err := h.index.Parse(nativeparser.ParseInput{FileName: file}, nativeparser.FlagNone)
		if err != nil {
			return err
		}
		defer tu.Dispose()

		results := completion.Complete(tu, line, col, nil)
		types.SortCompletions(results)
		return printResult(c, results, func() {
			for _, r := range results {
				fmt.Printf("%s\t%s\n", r.Text, r.Hint)
			}
		})
	},
}

var markersCommand = &cli.Command{
	Name:      "markers",
	Usage:     "emit semantic markers for a line range",
	ArgsUsage: "<file> <first-line> <last-line>",
	Action: func(c *cli.Context) error {
		args := c.Args().Slice()
		if len(args) != 3 {
			return cli.Exit("markers requires <file> <first-line> <last-line>", 1)
		}
		file := args[0]
		first, err1 := strconv.Atoi(args[1])
		last, err2 := strconv.Atoi(args[2])
		if err1 != nil || err2 != nil {
			return cli.Exit("first-line and last-line must be integers", 1)
		}

		h := newHarness(c)
		tu, err := h.index.Parse(nativeparser.ParseInput{FileName: file}, nativeparser.FlagNone)
		if err != nil {
			return err
		}
		defer tu.Dispose()

		markers := marker.MarkersInRange(tu, first, last)
		return printResult(c, markers, func() {
			for _, m := range markers {
				fmt.Printf("%s len=%d kind=%d\n", m.Location, m.Length, m.Kind)
			}
		})
	},
}

var followCommand = &cli.Command{
	Name:      "follow",
	Usage:     "resolve the definition (or database fallback) at a line:col position",
	ArgsUsage: "<file> <line> <col>",
	Action: func(c *cli.Context) error {
		file, line, col, err := fileLineCol(c)
		if err != nil {
			return err
		}
		h := newHarness(c)
		nav := navigator.New(h.index, h.live, h.db)
		loc := nav.Follow(file, line, col)
		return printResult(c, loc, func() {
			if loc.IsNull() {
				fmt.Println("no definition found")
				return
			}
			fmt.Println(loc)
		})
	},
}

func fileLineCol(c *cli.Context) (file string, line, col int, err error) {
	args := c.Args().Slice()
	if len(args) != 3 {
		return "", 0, 0, cli.Exit("expected <file> <line> <col>", 1)
	}
	line, errL := strconv.Atoi(args[1])
	col, errC := strconv.Atoi(args[2])
	if errL != nil || errC != nil {
		return "", 0, 0, cli.Exit("line and col must be integers", 1)
	}
	return args[0], line, col, nil
}

func printSymbols(syms []types.Symbol) {
	for _, s := range syms {
		fmt.Printf("%s %s at %s\n", s.Kind, s.QualifiedName(), s.Location)
	}
}

func printResult(c *cli.Context, v interface{}, human func()) error {
	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human()
	return nil
}
