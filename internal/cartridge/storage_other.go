//go:build !unix

package cartridge

import "os"

// fileBacking rewrites the whole save file on every flush
type fileBacking struct {
	path string
}

func openBacking(path string, initial []uint8) ([]uint8, backing, error) {
	data := make([]uint8, len(initial))
	copy(data, initial)
	b := fileBacking{path: path}
	if err := b.Sync(data); err != nil {
		return nil, nil, err
	}
	return data, b, nil
}

func (f fileBacking) Sync(data []uint8) error {
	return os.WriteFile(f.path, data, 0o644)
}

func (f fileBacking) Release(data []uint8) error {
	return f.Sync(data)
}
