// Package export provides container-level export adapters: Wavefront OBJ
// geometry output and a Parquet attribute table for analysis tooling.
package export

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/chdio/chd/pkg/container"
)

// WriteOBJ writes every loaded element of the model as a Wavefront OBJ
// object. Chunks are visited in ID order so output is deterministic. The
// model is not mutated.
func WriteOBJ(w io.Writer, m *container.Model) error {
	bw := bufio.NewWriter(w)

	chunkIDs := make([]string, 0, len(m.Chunks))
	for id := range m.Chunks {
		chunkIDs = append(chunkIDs, id)
	}
	sort.Strings(chunkIDs)

	if _, err := fmt.Fprintf(bw, "# %s\n", m.Project.Name); err != nil {
		return err
	}

	// OBJ vertex indices are global and 1-based.
	offset := uint32(1)
	for _, chunkID := range chunkIDs {
		c := m.Chunks[chunkID]
		for _, e := range c.Elements {
			name := m.OriginalIDs[e.ID]
			if name == "" {
				name = fmt.Sprintf("element_%d", e.ID)
			}
			if _, err := fmt.Fprintf(bw, "o %s\n", name); err != nil {
				return err
			}
			for _, v := range e.Vertices {
				if _, err := fmt.Fprintf(bw, "v %g %g %g\n", v[0], v[1], v[2]); err != nil {
					return err
				}
			}
			for _, f := range e.Faces {
				if _, err := fmt.Fprintf(bw, "f %d %d %d\n", f[0]+offset, f[1]+offset, f[2]+offset); err != nil {
					return err
				}
			}
			offset += uint32(len(e.Vertices))
		}
	}

	return bw.Flush()
}
