//go:build !windows

package notification

func showDialog(string, string) bool { return false }
