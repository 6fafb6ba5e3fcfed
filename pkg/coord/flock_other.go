//go:build !unix

package coord

import "errors"

type fileLock struct{}

func openFileLock(string) (*fileLock, error) {
	return nil, errors.New("file locks are not supported on this platform")
}

func (l *fileLock) lock() error   { return nil }
func (l *fileLock) unlock() error { return nil }
func (l *fileLock) close() error  { return nil }
