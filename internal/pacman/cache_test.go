package pacman

import "testing"

func TestParseCacheFilename(t *testing.T) {
	tests := []struct {
		filename string
		name     string
		version  string
		arch     string
		ok       bool
	}{
		{"pkg-1.0-1-x86_64.pkg.tar.zst", "pkg", "1.0-1", "x86_64", true},
		{"pkg-1.1-1-x86_64.pkg.tar.zst", "pkg", "1.1-1", "x86_64", true},
		{"linux-firmware-20240115.abc123-1-any.pkg.tar.zst", "linux-firmware", "20240115.abc123-1", "any", true},
		{"python-requests-2.31.0-2-any.pkg.tar.zst", "python-requests", "2.31.0-2", "any", true},
		{"gcc-libs-1:13.2.1-3-x86_64.pkg.tar.zst", "gcc-libs", "1:13.2.1-3", "x86_64", true},
		{"old-style-4.2-1-x86_64.pkg.tar.xz", "old-style", "4.2-1", "x86_64", true},
		// Signature files and strays are skipped.
		{"pkg-1.0-1-x86_64.pkg.tar.zst.sig", "", "", "", false},
		{"pkg-1.0-1-x86_64.pkg.tar.zst.part", "", "", "", false},
		{"README", "", "", "", false},
	}

	for _, tt := range tests {
		name, version, arch, ok := ParseCacheFilename(tt.filename)
		if ok != tt.ok {
			t.Errorf("ParseCacheFilename(%q) ok = %v, want %v", tt.filename, ok, tt.ok)
			continue
		}
		if name != tt.name || version != tt.version || arch != tt.arch {
			t.Errorf("ParseCacheFilename(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.filename, name, version, arch, tt.name, tt.version, tt.arch)
		}
	}
}
