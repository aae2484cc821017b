//go:build cgo

package main

import (
	"github.com/dusk-indust/xmigraph/internal/graph"
)

// openIndex opens the file-backed Kuzu index at path.
func openIndex(path string) (graph.Store, error) {
	return graph.NewKuzuFileStore(path)
}
