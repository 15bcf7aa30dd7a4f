package platform

import (
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	p := Detect()
	if p == "" {
		t.Fatal("Detect() returned empty platform")
	}
	if runtime.GOOS == "darwin" && p != PlatformMacOS {
		t.Errorf("expected PlatformMacOS on darwin, got %s", p)
	}
	if p2 := Detect(); p != p2 {
		t.Errorf("Detect() not stable: got %s then %s", p, p2)
	}
}

func TestDetectFromInputs(t *testing.T) {
	tests := []struct {
		goos, distro, proc string
		want               Platform
	}{
		{"darwin", "", "", PlatformMacOS},
		{"windows", "", "", PlatformWindows},
		{"linux", "", "Linux version 6.8.0-generic", PlatformLinux},
		{"linux", "Ubuntu", "", PlatformWSL},
		{"linux", "", "Linux version 5.15.90.1-microsoft-standard-WSL2", PlatformWSL},
		{"linux", "", "Linux version 4.4.0-19041-Microsoft", PlatformWSL},
		{"plan9", "", "", PlatformUnknown},
	}
	for _, tt := range tests {
		if got := detect(tt.goos, tt.distro, tt.proc); got != tt.want {
			t.Errorf("detect(%q, %q, %q) = %s, want %s", tt.goos, tt.distro, tt.proc, got, tt.want)
		}
	}
}

func TestPlatformString(t *testing.T) {
	tests := []struct {
		platform Platform
		expected string
	}{
		{PlatformMacOS, "macOS"},
		{PlatformLinux, "Linux"},
		{PlatformWSL, "WSL"},
		{PlatformWindows, "Windows"},
		{PlatformUnknown, "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.platform.String(); got != tt.expected {
			t.Errorf("Platform(%s).String() = %s, want %s", tt.platform, got, tt.expected)
		}
	}
}

const sampleMounts = `/dev/sda1 / ext4 rw,relatime 0 0
drvfs /mnt/c 9p rw,noatime 0 0
server:/export /mnt/nfs nfs4 rw 0 0
user@host:/ /home/me/remote fuse.sshfs rw 0 0
tmpfs /mnt/cache tmpfs rw 0 0
`

func TestMountFSType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home/me/.tabdeck/snapshot.json", "ext4"},
		{"/mnt/c/Users/me/snapshot.json", "9p"},
		{"/mnt/nfs/snapshot.json", "nfs4"},
		{"/mnt/nfsother/snapshot.json", "ext4"},
		{"/home/me/remote/snapshot.json", "fuse.sshfs"},
		{"/mnt/cache", "tmpfs"},
	}
	for _, tt := range tests {
		if got := mountFSType(sampleMounts, tt.path); got != tt.want {
			t.Errorf("mountFSType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWarningForFSType(t *testing.T) {
	for _, fs := range []string{"9p", "nfs", "nfs4", "cifs", "smbfs", "fuse.sshfs"} {
		if warningForFSType(fs) == "" {
			t.Errorf("expected a warning for %s", fs)
		}
	}
	for _, fs := range []string{"ext4", "apfs", "tmpfs", ""} {
		if w := warningForFSType(fs); w != "" {
			t.Errorf("unexpected warning for %s: %s", fs, w)
		}
	}
}
