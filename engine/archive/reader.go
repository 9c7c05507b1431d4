// Package archive reads twarc flat-file archives: JSONL files with one
// search-endpoint response page per line.
package archive

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/twarcsql/twarcsql/engine/tweet"
)

// Pages can embed full tweet payloads for hundreds of results, so single
// lines routinely run into megabytes.
const maxLineBytes = 32 << 20

// ErrNotArchive reports a file whose lines are not twarc search pages.
var ErrNotArchive = errors.New("archive: not a twarc search archive")

// Reader streams pages out of a twarc JSONL file.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

// Open opens a JSONL archive for reading.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &Reader{file: file, scanner: scanner}, nil
}

// Next returns the next page, or io.EOF when the archive is exhausted.
// Blank lines are skipped. A malformed line fails with its line number.
func (r *Reader) Next() (*tweet.Page, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := sniff(raw); err != nil {
			return nil, fmt.Errorf("%w (line %d)", err, r.line)
		}
		var page tweet.Page
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("archive: line %d: %w", r.line, err)
		}
		return &page, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("archive: line %d: %w", r.line+1, err)
	}
	return nil, io.EOF
}

// Line reports the number of the last line read.
func (r *Reader) Line() int { return r.line }

func (r *Reader) Close() error {
	return r.file.Close()
}

// sniff cheaply checks that a line looks like a search-endpoint page
// before committing to a full decode. twarc writes other shapes too
// (e.g. flattened tweets from `twarc2 flatten`), which this loader does
// not accept.
func sniff(raw []byte) error {
	if !gjson.ValidBytes(raw) {
		return errors.New("archive: invalid JSON")
	}
	data := gjson.GetBytes(raw, "data")
	if !data.Exists() || !data.IsArray() {
		return ErrNotArchive
	}
	return nil
}
