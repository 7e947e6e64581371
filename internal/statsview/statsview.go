// Package statsview serves live Go runtime charts (heap, goroutines, GC)
// while the emulator runs.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is used when Launch is given an empty address.
const DefaultAddress = "localhost:12600"

const path = "/debug/statsview"

// Launch starts the stats server in its own goroutine and reports the URL
// on output. It returns the address being served.
func Launch(output io.Writer, addr string) string {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	fmt.Fprintf(output, "stats server available at %s\n", url(addr))
	return addr
}

func url(addr string) string { return "http://" + addr + path }
