//go:build unix

package cartridge

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapBacking keeps the storage in a shared memory mapping of the save file
type mmapBacking struct{}

func openBacking(path string, initial []uint8) ([]uint8, backing, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if err := f.Truncate(int64(len(initial))); err != nil {
		return nil, nil, err
	}
	if _, err := f.WriteAt(initial, 0); err != nil {
		return nil, nil, err
	}

	data, err := unix.Mmap(int(f.Fd()), 0, len(initial), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, mmapBacking{}, nil
}

func (mmapBacking) Sync(data []uint8) error {
	return unix.Msync(data, unix.MS_SYNC)
}

func (m mmapBacking) Release(data []uint8) error {
	err := m.Sync(data)
	if uerr := unix.Munmap(data); err == nil {
		err = uerr
	}
	return err
}
