package pacman

import "testing"

const sampleInfoBlock = `Name            : python-requests
Version         : 2.31.0-2
Description     : Python HTTP for Humans
Architecture    : any
URL             : https://requests.readthedocs.io/
Licenses        : Apache
Groups          : None
Provides        : None
Depends On      : python-certifi  python-chardet  python-idna  python-urllib3
Optional Deps   : python-pysocks: SOCKS proxy support
Required By     : python-pip  python-tqdm  yay-helper
Optional For    : None
Conflicts With  : None
Replaces        : None
Installed Size  : 1.47 MiB
Packager        : Felix Yan <felixonmars@archlinux.org>
Build Date      : Mon 22 May 2023 06:27:11 AM UTC
Install Date    : Wed 14 Jun 2023 09:12:45 PM UTC
Install Reason  : Installed as a dependency for another package
Install Script  : No
Validated By    : Signature`

func TestParseInfoBlock(t *testing.T) {
	pkg := ParseInfoBlock(sampleInfoBlock)

	if pkg.Name != "python-requests" {
		t.Errorf("Name = %q, want python-requests", pkg.Name)
	}
	if pkg.Version != "2.31.0-2" {
		t.Errorf("Version = %q, want 2.31.0-2", pkg.Version)
	}
	if pkg.Description != "Python HTTP for Humans" {
		t.Errorf("Description = %q", pkg.Description)
	}
	if pkg.SizeBytes != 1541406 {
		t.Errorf("SizeBytes = %d, want 1541406", pkg.SizeBytes)
	}
	if pkg.InstallDate.IsZero() {
		t.Error("InstallDate not parsed")
	}
	if !pkg.IsDependency {
		t.Error("IsDependency = false, want true")
	}
	want := []string{"python-pip", "python-tqdm", "yay-helper"}
	if len(pkg.RequiredBy) != len(want) {
		t.Fatalf("RequiredBy = %v, want %v", pkg.RequiredBy, want)
	}
	for i, name := range want {
		if pkg.RequiredBy[i] != name {
			t.Errorf("RequiredBy[%d] = %q, want %q", i, pkg.RequiredBy[i], name)
		}
	}
	if pkg.OptionalFor != nil {
		t.Errorf("OptionalFor = %v, want nil", pkg.OptionalFor)
	}
}

func TestParseInfoBlockExplicitInstall(t *testing.T) {
	block := `Name            : firefox
Version         : 121.0-1
Description     : Fast, Private & Safe Web Browser
Installed Size  : 230 MiB
Required By     : None
Optional For    : None
Install Reason  : Explicitly installed`

	pkg := ParseInfoBlock(block)
	if pkg.Name != "firefox" {
		t.Errorf("Name = %q, want firefox", pkg.Name)
	}
	if pkg.IsDependency {
		t.Error("IsDependency = true, want false")
	}
	if pkg.RequiredBy != nil {
		t.Errorf("RequiredBy = %v, want nil", pkg.RequiredBy)
	}
}

func TestParseInfoBlockContinuationLines(t *testing.T) {
	block := `Name            : glibc
Version         : 2.38-7
Installed Size  : 47 MiB
Required By     : bash  coreutils  gcc-libs
                  systemd  util-linux
Install Reason  : Explicitly installed`

	pkg := ParseInfoBlock(block)
	if got := len(pkg.RequiredBy); got != 5 {
		t.Fatalf("len(RequiredBy) = %d, want 5: %v", got, pkg.RequiredBy)
	}
	if pkg.RequiredBy[3] != "systemd" {
		t.Errorf("RequiredBy[3] = %q, want systemd", pkg.RequiredBy[3])
	}
	if !pkg.IsDependency {
		t.Error("IsDependency = false, want true when packages require it")
	}
}
