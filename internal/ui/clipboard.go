package ui

import "github.com/atotto/clipboard"

func writeClipboard(s string) error {
	return clipboard.WriteAll(s)
}
