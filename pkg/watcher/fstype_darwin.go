//go:build darwin

package watcher

import (
	"strings"

	"golang.org/x/sys/unix"
)

func detectFilesystemType(path string) FilesystemType {
	probe := nearestExisting(path)
	if probe == "" {
		return FSTypeUnknown
	}
	var st unix.Statfs_t
	if err := unix.Statfs(probe, &st); err != nil {
		return FSTypeUnknown
	}
	name := strings.ToLower(unix.ByteSliceToString(st.Fstypename[:]))
	switch {
	case name == "nfs":
		return FSTypeNFS
	case name == "smbfs" || name == "cifs":
		return FSTypeSMB
	case name == "sshfs":
		return FSTypeSSHFS
	case strings.Contains(name, "fuse"):
		return FSTypeFUSE
	}
	return FSTypeLocal
}
