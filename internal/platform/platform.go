// Package platform detects the host OS flavour and filesystem quirks that
// affect clipboard access and snapshot file watching.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Platform represents the detected platform
type Platform string

const (
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformWSL     Platform = "wsl"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

var (
	detectOnce sync.Once
	detected   Platform
)

// Detect returns the current platform. The result is computed once.
func Detect() Platform {
	detectOnce.Do(func() {
		detected = detect(runtime.GOOS, os.Getenv("WSL_DISTRO_NAME"), readProcVersion())
	})
	return detected
}

func readProcVersion() string {
	b, err := os.ReadFile("/proc/version")
	if err != nil {
		return ""
	}
	return string(b)
}

func detect(goos, wslDistro, procVersion string) Platform {
	switch goos {
	case "darwin":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	case "linux":
		if wslDistro != "" || strings.Contains(strings.ToLower(procVersion), "microsoft") {
			return PlatformWSL
		}
		return PlatformLinux
	default:
		return PlatformUnknown
	}
}

// String returns a human-readable platform name
func (p Platform) String() string {
	switch p {
	case PlatformMacOS:
		return "macOS"
	case PlatformLinux:
		return "Linux"
	case PlatformWSL:
		return "WSL"
	case PlatformWindows:
		return "Windows"
	default:
		return "Unknown"
	}
}

// WatchWarning explains why fsnotify events may not arrive for path, or
// returns "" when the filesystem is expected to behave. Only Linux mounts
// are inspected.
func WatchWarning(path string) string {
	if runtime.GOOS != "linux" {
		return ""
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	mounts, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return ""
	}
	return warningForFSType(mountFSType(string(mounts), absPath))
}

// mountFSType returns the filesystem type of the longest mount point that
// contains absPath, given /proc/mounts content.
func mountFSType(mounts, absPath string) string {
	var matchedMount, matchedType string
	for _, line := range strings.Split(mounts, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		mountPoint, fsType := fields[1], fields[2]
		if !withinMount(absPath, mountPoint) {
			continue
		}
		if len(mountPoint) > len(matchedMount) {
			matchedMount, matchedType = mountPoint, fsType
		}
	}
	return matchedType
}

func withinMount(path, mountPoint string) bool {
	if mountPoint == "/" || path == mountPoint {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(mountPoint, "/")+"/")
}

func warningForFSType(fsType string) string {
	switch {
	case fsType == "9p":
		return "snapshot is on a 9p mount (WSL Windows drive): change notifications will not arrive, results refresh on the next query"
	case fsType == "nfs" || fsType == "nfs4":
		return "snapshot is on an NFS mount: change notifications may be unreliable"
	case fsType == "cifs" || fsType == "smbfs":
		return "snapshot is on a CIFS/SMB mount: change notifications may be unreliable"
	case strings.HasPrefix(fsType, "fuse.sshfs"):
		return "snapshot is on an SSHFS mount: change notifications will not arrive"
	}
	return ""
}
