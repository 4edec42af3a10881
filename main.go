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

	"github.com/olehluchkiv/sbmlannot/internal/logging"
	"github.com/olehluchkiv/sbmlannot/internal/resolver"
	"github.com/olehluchkiv/sbmlannot/internal/sbml"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the whole CLI minus process setup. It returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// Go's flag parsing stops at the first positional argument, which would
	// break "sbmlannot model.xml -kind species". Flags are moved to the front.
	flags, positional := reorderArgs(args)

	fs := flag.NewFlagSet("sbmlannot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	kindFlag := fs.String("kind", "model", "element kind (model, compartment, species, unitdefinition, unit)")
	id := fs.String("id", "", "element id; for -kind unit, the id of the enclosing unit definition")
	unitIndex := fs.Int("unit", 0, "index of the unit within its unit definition (with -kind unit)")
	setText := fs.String("set", "", "replace the annotation with this text")
	setFile := fs.String("set-file", "", "replace the annotation with the contents of this file")
	unset := fs.Bool("unset", false, "remove the annotation")
	output := fs.String("output", "", "write the modified document to this file instead of stdout")
	logFile := fs.String("log-file", "", "also append logs to this file")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")

	if err := fs.Parse(flags); err != nil {
		return 2
	}
	positional = append(positional, fs.Args()...)

	if len(positional) == 0 {
		fmt.Fprintln(stderr, "Usage: sbmlannot [flags] <file.xml|->")
		fs.PrintDefaults()
		return 2
	}
	input := positional[0]

	given := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	writes := 0
	for _, name := range []string{"set", "set-file", "unset"} {
		if given[name] {
			writes++
		}
	}
	if writes > 1 {
		fmt.Fprintln(stderr, "Only one of -set, -set-file and -unset may be given")
		return 2
	}

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level %q: %v\n", *logLevel, err)
		return 2
	}

	logger, logCleanup, err := logging.Setup(stderr, *logFile, level)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to setup logging: %v\n", err)
		return 1
	}
	defer logCleanup()

	kind, err := resolver.ParseKind(*kindFlag)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	target := resolver.Target{Kind: kind, ID: *id, UnitIndex: *unitIndex}
	if kind != resolver.KindModel && target.ID == "" {
		fmt.Fprintf(stderr, "Error: -id is required for -kind %s\n", kind)
		return 2
	}

	doc, err := resolver.Load(ctx, input, stdin, logger)
	if err != nil {
		logger.Error("failed to load document", "input", input, "error", err)
		fmt.Fprintf(stderr, "Error loading %s: %v\n", input, err)
		return 1
	}

	h, err := resolver.Resolve(doc, target)
	if err != nil {
		logger.Error("failed to resolve element", "target", target.String(), "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if writes == 0 {
		fmt.Fprintln(stdout, h.Annotation())
		return 0
	}

	switch {
	case given["unset"] && *unset:
		h.UnsetAnnotation()
		logger.Info("annotation removed", "target", target.String())
	case given["unset"]:
		// -unset=false: nothing to change, but still rewrite the document.
	case given["set-file"]:
		data, err := os.ReadFile(*setFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading %s: %v\n", *setFile, err)
			return 1
		}
		h.SetAnnotation(string(data))
		logger.Info("annotation replaced", "target", target.String(), "source", *setFile, "bytes", len(data))
	default:
		h.SetAnnotation(*setText)
		logger.Info("annotation replaced", "target", target.String(), "bytes", len(*setText))
	}

	if err := writeDocument(doc, *output, stdout); err != nil {
		logger.Error("failed to write document", "output", *output, "error", err)
		if errors.Is(err, sbml.ErrMalformedAnnotation) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "Error writing document: %v\n", err)
		}
		return 1
	}
	if *output != "" {
		logger.Info("wrote document", "output", *output)
	}
	return 0
}

// writeDocument serializes doc to path, or to stdout when path is empty.
// The file is only created once serialization has succeeded.
func writeDocument(doc *sbml.Document, path string, stdout io.Writer) error {
	out, err := doc.XMLString()
	if err != nil {
		return err
	}
	if path == "" {
		_, err = io.WriteString(stdout, out)
		return err
	}
	return os.WriteFile(path, []byte(out), 0o644)
}

// reorderArgs separates flags and positional arguments so flags can appear
// in any position (before or after the positional path argument).
// Flags that take a value (e.g., -kind species) consume the next arg.
// A lone "-" is the stdin input, not a flag.
func reorderArgs(args []string) (flags, positional []string) {
	// Set of flags that take a value argument
	valueFlagSet := map[string]bool{
		"-kind": true, "-id": true, "-unit": true, "-set": true, "-set-file": true,
		"-output": true, "-log-file": true, "-log-level": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") && arg != resolver.Stdin {
			flags = append(flags, arg)
			// Check if this flag takes a value (and it's not using = syntax)
			name := "-" + strings.TrimLeft(arg, "-")
			if !strings.Contains(arg, "=") && valueFlagSet[name] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return flags, positional
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s (valid: debug, info, warn, error)", s)
	}
}
