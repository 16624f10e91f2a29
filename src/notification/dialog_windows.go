//go:build windows

package notification

import (
	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

func showDialog(title, message string) bool {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return false
	}
	m, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return false
	}
	return win.MessageBox(0, m, t, win.MB_OK|win.MB_ICONERROR|win.MB_TOPMOST) != 0
}
