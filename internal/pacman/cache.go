package pacman

import "regexp"

// DefaultCacheDir is where pacman keeps downloaded package archives.
const DefaultCacheDir = "/var/cache/pacman/pkg"

// Cache archive filenames look like name-1.2.3-4-x86_64.pkg.tar.zst.
// The version captured here is pkgver-pkgrel, matching VerCmp input.
var cacheFilenameRe = regexp.MustCompile(`^(.+)-([^-]+-[0-9]+)-([^-]+)\.pkg\.tar\.(?:zst|xz|gz|bz2)$`)

// ParseCacheFilename extracts (name, version, arch) from a pacman cache
// archive filename. ok is false for signature files and anything else
// that does not match the archive naming scheme.
func ParseCacheFilename(filename string) (name, version, arch string, ok bool) {
	m := cacheFilenameRe.FindStringSubmatch(filename)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}
