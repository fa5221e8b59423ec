package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/funvibe/nodegraph/internal/backend"
	"github.com/funvibe/nodegraph/internal/config"
	"github.com/funvibe/nodegraph/internal/diagnostics"
	"github.com/funvibe/nodegraph/internal/graph"
	"github.com/funvibe/nodegraph/internal/logging"
	"github.com/funvibe/nodegraph/internal/overload"
	"github.com/funvibe/nodegraph/internal/prelude"
	"github.com/funvibe/nodegraph/internal/typesystem"
)

const usage = `Usage: nodegraph [--config <file>] <command> [args]

Commands:
  types            list registered value types
  classes          list overload classes and their candidates
  builtins         list builtin functions
  demo [n]         compile the sample programs and run them on n (default 4)
  help             show this message
`

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	configPath := ""
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "-config" || arg == "--config" {
			if i+1 >= len(args) {
				fmt.Fprintln(stderr, "--config requires a file argument")
				return 2
			}
			configPath = args[i+1]
			i++
			continue
		}
		rest = append(rest, arg)
	}

	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger := logging.New(cfg.Logging(stderr, "cli"))

	env, err := prelude.New(cfg.RegisterTypes)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer env.Release()

	switch rest[0] {
	case "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	case "types":
		for _, info := range env.Types.Types() {
			fmt.Fprintf(stdout, "  %-12s %s\n", info.Name, info.ID)
		}
		return 0
	case "classes":
		for _, class := range env.Classes.Classes() {
			fmt.Fprintf(stdout, "%s :: %s\n", class.Name, class.Type)
			for _, cand := range class.Candidates {
				fmt.Fprintf(stdout, "  %s\n", cand)
			}
		}
		return 0
	case "builtins":
		for _, name := range prelude.Names() {
			fmt.Fprintf(stdout, "  %-10s :: %s\n", name, prelude.Builtins[name].Type)
		}
		return 0
	case "demo":
		n := int64(4)
		if len(rest) > 1 {
			n, err = strconv.ParseInt(rest[1], 10, 64)
			if err != nil {
				fmt.Fprintf(stderr, "Error: invalid argument %q: %v\n", rest[1], err)
				return 2
			}
		}
		printer := diagnostics.NewPrinter(stderr, cfg.ColorMode())
		compiler := backend.NewCompiler(overload.NewEngine(env.Classes, overload.WithLogger(logger)),
			backend.WithLogger(logger),
			backend.WithWorkers(cfg.Compile.Workers))
		return runDemo(context.Background(), compiler, n, stdout, printer)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", rest[0])
		fmt.Fprint(stderr, usage)
		return 2
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		found, err := config.FindConfig(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return config.Default(), nil
		}
		path = found
	}
	return config.LoadConfig(path)
}

// demoPrograms builds the sample graphs. Every program takes one Int.
func demoPrograms(g *graph.Graph) []backend.Program {
	lambda := func(body func(x graph.NodeID) graph.NodeID) graph.NodeID {
		x := graph.NewVar()
		return g.Lambda(x, body(g.Var(x)))
	}
	return []backend.Program{
		{Name: "addThree", Graph: g, Root: lambda(func(x graph.NodeID) graph.NodeID {
			return g.ApplyN(prelude.Overloaded(g, "add"), x, prelude.IntNode(g, 3))
		})},
		{Name: "square", Graph: g, Root: lambda(func(x graph.NodeID) graph.NodeID {
			return g.ApplyN(prelude.Overloaded(g, "mul"), x, x)
		}), Expected: typesystem.Func(prelude.Int, prelude.Int)},
		{Name: "negate", Graph: g, Root: lambda(func(x graph.NodeID) graph.NodeID {
			return g.Apply(prelude.Overloaded(g, "neg"), g.Apply(prelude.MustRef(g, "double"), x))
		})},
		{Name: "hundredOver", Graph: g, Root: lambda(func(x graph.NodeID) graph.NodeID {
			return g.Apply(prelude.MustRef(g, "showInt"),
				g.ApplyN(prelude.MustRef(g, "divInt"), prelude.IntNode(g, 100), x))
		})},
	}
}

func runDemo(ctx context.Context, compiler *backend.Compiler, n int64, stdout io.Writer, printer *diagnostics.Printer) int {
	g := graph.New()
	defer g.Release()

	exes, err := compiler.CompileAll(ctx, demoPrograms(g))
	failed := 0
	if err != nil {
		c, _ := printer.PrintAll(diagnostics.FromError(err))
		failed += c
	}

	arg := prelude.NewInt(n)
	defer arg.Drop()
	for _, x := range exes {
		if x == nil {
			continue
		}
		out, err := x.Run(ctx, arg)
		if err != nil {
			c, _ := printer.PrintAll(x.Diagnose(err))
			failed += c
			x.Close()
			continue
		}
		fmt.Fprintf(stdout, "%-12s :: %-16s %d => %s\n", x.Name(), x.Type(), n, out)
		out.Drop()
		x.Close()
	}
	if failed > 0 {
		return 1
	}
	return 0
}
