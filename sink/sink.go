// Package sink writes the enriched record stream to a destination.
//
// Every sink follows the same lifecycle: Write for each record, Commit
// once the stream ended without error, Close always. Close without Commit
// discards pending work where the backend allows it (SQLite rolls back,
// Badger cancels its batch); stream formats cannot un-write bytes.
package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nodeadmin/hpo-parser/config"
	"github.com/nodeadmin/hpo-parser/enricher"
)

// Sink consumes enriched records.
type Sink interface {
	Write(ctx context.Context, rec *enricher.Record) error
	Commit() error
	Close() error
}

// New opens the sink selected by out. stdout is used for stream formats
// when out.Path is empty or "-".
func New(out config.Output, stdout io.Writer, logger *slog.Logger) (Sink, error) {
	switch out.Format {
	case config.FormatJSONL, config.FormatJSON, "":
		w, closer, err := openStream(out.Path, stdout)
		if err != nil {
			return nil, err
		}
		if out.Format == config.FormatJSON {
			return newJSONArray(w, closer, out.Pretty), nil
		}
		return newJSONLines(w, closer), nil
	case config.FormatSQLite:
		return OpenSQLite(out.Path)
	case config.FormatBadger:
		return OpenBadger(out.Path, logger)
	}
	return nil, fmt.Errorf("unsupported output format %q", out.Format)
}

func openStream(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if path == "" || path == "-" {
		return stdout, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, f, nil
}
