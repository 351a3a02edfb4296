package debug

import (
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"
)

// WriteStateGraph writes the object graph reachable from v in graphviz
// dot format. Render it with "dot -Tsvg".
func WriteStateGraph(w io.Writer, v interface{}) {
	memviz.Map(w, v)
}

// SaveStateGraph writes the graph of v to a file
func SaveStateGraph(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating state graph: %w", err)
	}
	WriteStateGraph(f, v)
	return f.Close()
}
