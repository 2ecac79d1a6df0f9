package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/nodeadmin/hpo-parser/enricher"
)

const writerBufferSize = 256 * 1024 // 256 KB

// JSONSink writes records as JSON lines or as a single JSON array.
type JSONSink struct {
	bw     *bufio.Writer
	closer io.Closer
	array  bool
	pretty bool
	count  int
	buf    bytes.Buffer
	enc    *json.Encoder
}

// NewJSONLines writes one compact JSON object per line to w.
func NewJSONLines(w io.Writer) *JSONSink {
	return newJSONLines(w, nil)
}

// NewJSONArray writes a JSON array to w, indented when pretty is set.
func NewJSONArray(w io.Writer, pretty bool) *JSONSink {
	return newJSONArray(w, nil, pretty)
}

func newJSONLines(w io.Writer, closer io.Closer) *JSONSink {
	return newJSON(w, closer, false, false)
}

func newJSONArray(w io.Writer, closer io.Closer, pretty bool) *JSONSink {
	return newJSON(w, closer, true, pretty)
}

func newJSON(w io.Writer, closer io.Closer, array, pretty bool) *JSONSink {
	s := &JSONSink{
		bw:     bufio.NewWriterSize(w, writerBufferSize),
		closer: closer,
		array:  array,
		pretty: pretty,
	}
	s.enc = json.NewEncoder(&s.buf)
	s.enc.SetEscapeHTML(false)
	if pretty {
		s.enc.SetIndent("  ", "  ")
	}
	return s
}

// Write encodes one record.
func (s *JSONSink) Write(_ context.Context, rec *enricher.Record) error {
	s.buf.Reset()
	if err := s.enc.Encode(rec); err != nil {
		return err
	}

	if !s.array {
		s.count++
		_, err := s.bw.Write(s.buf.Bytes())
		return err
	}

	sep := "[\n"
	if s.count > 0 {
		sep = ",\n"
	}
	if !s.pretty {
		sep = sep[:1]
		if s.count == 0 {
			sep = "["
		}
	}
	s.count++

	if _, err := s.bw.WriteString(sep); err != nil {
		return err
	}
	if s.pretty {
		if _, err := s.bw.WriteString("  "); err != nil {
			return err
		}
	}
	_, err := s.bw.Write(bytes.TrimRight(s.buf.Bytes(), "\n"))
	return err
}

// Commit closes the array, if any, and flushes buffered output.
func (s *JSONSink) Commit() error {
	if s.array {
		tail := "]\n"
		switch {
		case s.count == 0:
			tail = "[]\n"
		case s.pretty:
			tail = "\n]\n"
		}
		if _, err := s.bw.WriteString(tail); err != nil {
			return err
		}
	}
	return s.bw.Flush()
}

// Close releases the output file when the sink owns one.
func (s *JSONSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Count returns the number of records written.
func (s *JSONSink) Count() int { return s.count }
