package core

import (
	"bytes"
	"fmt"
	"os"
)

// formatListLine renders one entry in ls -l style. Permissions, link count,
// owner and group are fixed literals; the month abbreviation is always
// English regardless of host locale.
func formatListLine(info os.FileInfo) string {
	perms := "-rw-r--r--"
	size := info.Size()
	if info.IsDir() {
		perms = "drwxr-xr-x"
		size = 0
	}
	return fmt.Sprintf("%s %3d %-8s %-8s %10d %s %s",
		perms, 1, "owner", "group", size,
		info.ModTime().Format("Jan 02 15:04"), info.Name())
}

// unixListLines renders the immediate children of dir, directories first,
// each line CRLF-terminated. A path that is not an existing directory yields
// an empty listing.
func unixListLines(dir string) []byte {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var buf bytes.Buffer
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if info, err := entry.Info(); err == nil {
			buf.WriteString(formatListLine(info))
			buf.WriteString("\r\n")
		}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, err := entry.Info(); err == nil {
			buf.WriteString(formatListLine(info))
			buf.WriteString("\r\n")
		}
	}
	return buf.Bytes()
}
