package pacman

import "strings"

// VerCmp compares two pacman version strings the way libalpm's vercmp
// does: an optional numeric epoch before ':', then pkgver, then an
// optional pkgrel after the last '-'. Segments alternate between numeric
// and alphabetic runs; numeric runs compare as numbers, so "10" sorts
// after "9". Returns -1, 0 or 1.
func VerCmp(a, b string) int {
	if a == b {
		return 0
	}

	epochA, restA := splitEpoch(a)
	epochB, restB := splitEpoch(b)
	if c := rpmVerCmp(epochA, epochB); c != 0 {
		return c
	}

	verA, relA := splitRelease(restA)
	verB, relB := splitRelease(restB)
	if c := rpmVerCmp(verA, verB); c != 0 {
		return c
	}
	if relA == "" || relB == "" {
		return 0
	}
	return rpmVerCmp(relA, relB)
}

func splitEpoch(v string) (epoch, rest string) {
	if i := strings.Index(v, ":"); i >= 0 {
		return v[:i], v[i+1:]
	}
	return "0", v
}

func splitRelease(v string) (ver, rel string) {
	if i := strings.LastIndex(v, "-"); i >= 0 {
		return v[:i], v[i+1:]
	}
	return v, ""
}

// rpmVerCmp implements the alternating alpha/numeric segment comparison
// used by rpm and alpm.
func rpmVerCmp(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		// Skip non-alphanumeric separators.
		for i < len(a) && !isAlnum(a[i]) {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) {
			j++
		}
		if i >= len(a) || j >= len(b) {
			break
		}

		numeric := isDigit(a[i])
		segA, nextI := takeSegment(a, i, numeric)
		segB, nextJ := takeSegment(b, j, isDigit(b[j]))

		// A numeric segment is always newer than an alphabetic one.
		if numeric != isDigit(b[j]) {
			if numeric {
				return 1
			}
			return -1
		}

		if numeric {
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			if len(segA) != len(segB) {
				if len(segA) > len(segB) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(segA, segB); c != 0 {
			return c
		}

		i, j = nextI, nextJ
	}

	// One string is a prefix of the other (ignoring separators); the
	// longer one is newer unless its remainder starts with a letter.
	restA := strings.TrimLeftFunc(a[min(i, len(a)):], func(r rune) bool { return !isAlnumRune(r) })
	restB := strings.TrimLeftFunc(b[min(j, len(b)):], func(r rune) bool { return !isAlnumRune(r) })
	switch {
	case restA == "" && restB == "":
		return 0
	case restA == "":
		if isAlpha(restB[0]) {
			return 1
		}
		return -1
	case restB == "":
		if isAlpha(restA[0]) {
			return -1
		}
		return 1
	}
	return 0
}

func takeSegment(s string, start int, numeric bool) (segment string, next int) {
	i := start
	for i < len(s) && isAlnum(s[i]) && isDigit(s[i]) == numeric {
		i++
	}
	return s[start:i], i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isAlnum(c byte) bool     { return isDigit(c) || isAlpha(c) }
func isAlnumRune(r rune) bool { return r < 128 && isAlnum(byte(r)) }

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
