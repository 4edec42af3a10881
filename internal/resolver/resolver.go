package resolver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/olehluchkiv/sbmlannot/internal/sbml"
)

// Stdin is the input name that reads the document from standard input.
const Stdin = "-"

// Load reads an SBML document from a file path, or from stdin when input is "-".
func Load(ctx context.Context, input string, stdin io.Reader, logger *slog.Logger) (*sbml.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger = logger.With("component", "resolver")

	var (
		data   []byte
		source string
		err    error
	)
	if input == Stdin {
		source = "stdin"
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		source, err = filepath.Abs(input)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", source, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", source)
		}
		data, err = os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := sbml.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	logger.Info("loaded document", "source", source, "bytes", len(data),
		"level", doc.Level, "version", doc.Version, "has_model", doc.Model != nil)
	return doc, nil
}
