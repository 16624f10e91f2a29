// Package clipboard serializes writes to the system clipboard.
package clipboard

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex
)

// Init prepares the clipboard. Repeated calls return the first result.
func Init() error {
	initOnce.Do(func() { initErr = clipboard.Init() })
	return initErr
}

// WriteText replaces the clipboard text. Concurrent writers are serialized.
func WriteText(text []byte) error {
	if err := Init(); err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, text)
	return nil
}
