package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dusk-indust/xmigraph/internal/export"
)

// ErrMalformedRow is returned for a table row that does not match its table's
// layout.
var ErrMalformedRow = errors.New("malformed row")

// maxRowSize bounds a single table row. Documentation tagged values can make
// rows far longer than bufio's default.
const maxRowSize = 16 << 20

// unescapeCell reverses the quote escaping applied by the table writer.
// Backslashes never survive export, so `\"` is unambiguous.
func unescapeCell(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

// row is one data line of a table, already split and unescaped.
type row struct {
	line  int
	cells []string
}

// readTable calls fn for every data row of the table at path. The first line
// is the header and must match want.
func readTable(path string, want []string, fn func(row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	defer f.Close()
	if err := scanTable(f, want, fn); err != nil {
		return fmt.Errorf("loader: %s: %w", path, err)
	}
	return nil
}

func scanTable(r io.Reader, want []string, fn func(row) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRowSize)

	lineNr := 0
	for sc.Scan() {
		lineNr++
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNr == 1 {
			if got := strings.Split(line, "\t"); !slices.Equal(got, want) {
				return fmt.Errorf("unexpected header %q, want %q", got, want)
			}
			continue
		}
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		for i, c := range cells {
			cells[i] = unescapeCell(c)
		}
		if err := fn(row{line: lineNr, cells: cells}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if lineNr == 0 {
		return errors.New("missing header")
	}
	return nil
}

// parseProps turns key|value cells into a property map.
func parseProps(cells []string, line int) (map[string]any, error) {
	props := make(map[string]any, len(cells)+2)
	for _, c := range cells {
		k, v, ok := strings.Cut(c, export.PropSeparator)
		if !ok || k == "" {
			return nil, fmt.Errorf("line %d: property %q: %w", line, c, ErrMalformedRow)
		}
		props[k] = v
	}
	return props, nil
}
