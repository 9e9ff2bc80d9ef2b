// Package statsview serves live runtime statistics of the simulator
// process over HTTP. Graphs are at
//
//	http://<addr>/debug/statsview
//
// and the standard pprof handlers at /debug/pprof/.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is the listen address used when none is given.
const DefaultAddress = "localhost:12600"

const url = "/debug/statsview"

// URL returns the page address for a listen address.
func URL(addr string) string {
	if addr == "" {
		addr = DefaultAddress
	}
	return "http://" + addr + url
}

// Launch starts the statistics server in a new goroutine and reports its
// address to output.
func Launch(addr string, output io.Writer) {
	if addr == "" {
		addr = DefaultAddress
	}

	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	_, _ = fmt.Fprintf(output, "stats server available at %s\n", URL(addr))
}
