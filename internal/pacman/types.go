package pacman

import "time"

// Package represents one installed pacman package as reported by the
// package manager's verbose query.
type Package struct {
	Name         string
	Version      string
	SizeBytes    int64
	Description  string
	InstallDate  time.Time // zero when the install date could not be parsed
	IsOrphan     bool
	IsDependency bool
	RequiredBy   []string
	OptionalFor  []string
}
