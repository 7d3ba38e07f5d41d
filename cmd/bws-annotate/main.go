// Command bws-annotate ranks BWS tuples with a generative LLM.
//
// It takes a single positional argument, the short name of the model, and annotates
// input/BWS-tuples/<domain>.txt for every domain, appending the results to
// output/<domain>_<model>.txt. Settings beyond the model name come from the
// environment (optionally via a .env file) and an optional YAML file named by
// BWS_CONFIG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	bwsannotator "github.com/JohnPlummer/bws-annotator"
	"github.com/JohnPlummer/bws-annotator/annotator"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

var errUsage = errors.New("usage error")

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) int {
	name, err := parseArgs(args, stdout, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	level, _ := lookup(annotator.EnvLogLevel)
	logger := newLogger(level, stderr).With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	info := bwsannotator.GetVersion()
	slog.Info("Starting annotation run",
		"name", info.Name,
		"version", info.Version,
		"model", name)

	cfg, err := loadConfig(name, lookup)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return exitFatal
	}

	if addr, ok := lookup(annotator.EnvMetricsAddr); ok && addr != "" {
		annotator.ServeMetrics(ctx, addr)
	}

	runner, err := annotator.NewRunner(cfg)
	if err != nil {
		slog.Error("Failed to create annotator", "error", err)
		return exitFatal
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		slog.Error("Annotation run failed",
			"error", err,
			"error_type", annotator.ClassifyError(err),
			"items_written", summary.Items())
		return exitFatal
	}

	for _, d := range summary.Domains {
		slog.Info("Domain summary",
			"domain", d.Domain,
			"items", d.Items,
			"parsed", d.Parsed,
			"unparsed", d.Unparsed,
			"output", d.OutputPath)
	}
	return exitOK
}

// parseArgs accepts exactly one positional argument from the supported model names.
// Options may appear before or after it. Help goes to stdout, usage errors to stderr.
func parseArgs(args []string, stdout, stderr io.Writer) (string, error) {
	choices := strings.Join(annotator.ModelNames(), ",")
	fs := flag.NewFlagSet("bws-annotate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {}

	fail := func(format string, a ...any) (string, error) {
		printUsage(stderr, choices)
		fmt.Fprintf(stderr, "bws-annotate: error: "+format+"\n", a...)
		return "", errUsage
	}

	// flag stops at the first positional argument, so parse the remainder again
	// after each one.
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				printHelp(stdout, choices)
				return "", err
			}
			printUsage(stderr, choices)
			return "", errUsage
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	switch {
	case len(positional) == 0:
		return fail("the following arguments are required: name_llm")
	case len(positional) > 1:
		return fail("unrecognized arguments: %s", strings.Join(positional[1:], " "))
	}

	name := positional[0]
	if _, err := annotator.ResolveModel(name); err != nil {
		return fail("argument name_llm: invalid choice: %q (choose from %s)",
			name, strings.Join(annotator.ModelNames(), ", "))
	}
	return name, nil
}

func printUsage(w io.Writer, choices string) {
	fmt.Fprintf(w, "usage: bws-annotate [-h] {%s}\n", choices)
}

func printHelp(w io.Writer, choices string) {
	printUsage(w, choices)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rank BWS tuples by domain typicality with a generative LLM.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "positional arguments:")
	fmt.Fprintf(w, "  {%s}\n", choices)
	fmt.Fprintln(w, "        Name of the generative LLM that should be used to rank the target items.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "options:")
	fmt.Fprintln(w, "  -h, --help  show this help message and exit")
}

// loadConfig merges defaults, the optional YAML file and the environment.
func loadConfig(name string, lookup func(string) (string, bool)) (annotator.Config, error) {
	cfg := annotator.NewDefaultConfig(name)

	if path, ok := lookup(annotator.EnvConfigFile); ok && path != "" {
		var err error
		cfg, err = cfg.LoadConfigFile(path)
		if err != nil {
			return cfg, err
		}
	}

	return cfg.ApplyEnv(lookup)
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
