//go:build windows

package conduit

import (
	"errors"
	"os"
	"time"
)

var errUnsupported = errors.New("conduit: FIFO conduits require a unix-like platform")

func New(path string) (*Pipe, error) {
	return nil, errUnsupported
}

func openWriter(path string, timeout time.Duration) (*os.File, error) {
	return nil, errUnsupported
}
