//go:build unix

package coord

import (
	"os"

	"golang.org/x/sys/unix"
)

type fileLock struct {
	file *os.File
}

func openFileLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &fileLock{file: f}, nil
}

func (l *fileLock) lock() error {
	return unix.Flock(int(l.file.Fd()), unix.LOCK_EX)
}

func (l *fileLock) unlock() error {
	return unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
}

func (l *fileLock) close() error {
	return l.file.Close()
}
