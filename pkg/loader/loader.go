// Package loader loads raw ROM/COM images into a memory.Memory at a
// given origin, the same two-line operation the reference implementation
// performs via fread(memory+start, size, 1, file).
package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/nsavage/i8080emu/pkg/mem"
)

// LoadFile reads the file at path and writes its bytes into m starting at
// origin. Returns the number of bytes loaded.
func LoadFile(m mem.Memory, path string, origin uint16) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()
	return Load(m, f, origin)
}

// Load reads all of r into m starting at origin. A ROM that would run
// past the top of the 64KiB address space wraps, matching FlatMemory's
// own indexing.
func Load(m mem.Memory, r io.Reader, origin uint16) (int, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("loader: %w", err)
	}
	addr := origin
	for _, b := range buf {
		m.Write(addr, b)
		addr++
	}
	return len(buf), nil
}
