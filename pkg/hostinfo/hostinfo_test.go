package hostinfo

import (
	"runtime"
	"testing"
)

func TestCollect(t *testing.T) {
	info := Collect()

	if info.OS != runtime.GOOS {
		t.Errorf("OS = %q, want %q", info.OS, runtime.GOOS)
	}
	if info.Arch != runtime.GOARCH {
		t.Errorf("Arch = %q, want %q", info.Arch, runtime.GOARCH)
	}
	if info.Cores < 1 {
		t.Errorf("Cores = %d", info.Cores)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}
