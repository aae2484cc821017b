//go:build !cgo

package main

import (
	"errors"

	"github.com/dusk-indust/xmigraph/internal/graph"
)

var errNoIndex = errors.New("the graph index needs a cgo build (CGO_ENABLED=1)")

func openIndex(string) (graph.Store, error) {
	return nil, errNoIndex
}
