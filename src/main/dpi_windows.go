//go:build windows

package main

import (
	"golang.org/x/sys/windows"
)

const processPerMonitorDPIAware = 2

// enableDPIAwareness makes window geometry report physical pixels so the
// region math can scale by the window's own DPI.
func enableDPIAwareness() {
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	if proc := shcore.NewProc("SetProcessDpiAwareness"); proc.Find() == nil {
		_, _, _ = proc.Call(uintptr(processPerMonitorDPIAware))
		return
	}
	user32 := windows.NewLazySystemDLL("user32.dll")
	if proc := user32.NewProc("SetProcessDPIAware"); proc.Find() == nil {
		_, _, _ = proc.Call()
	}
}
