package debug

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultStatsAddress is where the runtime stats server listens
const DefaultStatsAddress = "localhost:12600"

const statsPath = "/debug/statsview"

// LaunchStatsView starts a web server charting the Go runtime (heap, GC,
// goroutines) of the emulator. The returned function stops it.
func LaunchStatsView(addr string, output io.Writer) (stop func()) {
	if addr == "" {
		addr = DefaultStatsAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()
	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, statsPath)
	return mgr.Stop
}
