package codec

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MmapFile is a read-only memory-mapped file. Chunk and index files are
// immutable once written, so the mapping can be shared across readers.
type MmapFile struct {
	path string
	data []byte
	size int64
}

// OpenMmap opens a file and maps it read-only into memory.
func OpenMmap(path string) (*MmapFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	size := info.Size()
	if size == 0 {
		return &MmapFile{path: path}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return &MmapFile{path: path, data: data, size: size}, nil
}

// Close unmaps the file. Slices handed out by Data are invalid afterwards.
func (m *MmapFile) Close() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Munmap(m.data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	m.data = nil
	return nil
}

// Data returns the raw mapped bytes.
func (m *MmapFile) Data() []byte {
	return m.data
}

// Size returns the file size.
func (m *MmapFile) Size() int64 {
	return m.size
}

// Reader returns a codec reader over the mapped bytes.
func (m *MmapFile) Reader() *Reader {
	return NewReader(m.data)
}
