package pacman

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Sri-dhar/arch-cleaner/internal/units"
)

// installDateLayouts covers the formats pacman uses for "Install Date"
// depending on locale settings.
var installDateLayouts = []string{
	"Mon 02 Jan 2006 03:04:05 PM MST",
	"Mon 02 Jan 2006 15:04:05 MST",
	"Mon Jan 2 15:04:05 2006",
}

// ListInstalled returns every installed package with the fields parsed
// from `pacman -Qi`, with orphan status filled in from `pacman -Qtdq`.
func ListInstalled() ([]*Package, error) {
	orphans, err := Orphans()
	if err != nil {
		return nil, err
	}

	out, err := exec.Command("pacman", "-Qi").Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("pacman -Qi failed: %w (stderr: %s)", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("pacman -Qi failed: %w", err)
	}

	var packages []*Package
	for _, block := range strings.Split(string(out), "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		pkg := ParseInfoBlock(block)
		if pkg.Name == "" {
			continue
		}
		pkg.IsOrphan = orphans[pkg.Name]
		packages = append(packages, pkg)
	}

	return packages, nil
}

// Orphans returns the set of packages installed as dependencies that no
// installed package requires any more (`pacman -Qtdq`). pacman exits
// non-zero when the orphan list is empty, which is not an error here.
func Orphans() (map[string]bool, error) {
	out, err := exec.Command("pacman", "-Qtdq").Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) == 0 {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("pacman -Qtdq failed: %w", err)
	}

	orphans := make(map[string]bool)
	for _, name := range strings.Fields(string(out)) {
		orphans[name] = true
	}
	return orphans, nil
}

// ParseInfoBlock parses one package's block of `pacman -Qi` output into a
// Package. Unknown fields are ignored; list fields treat the literal
// "None" as empty.
func ParseInfoBlock(block string) *Package {
	pkg := &Package{}
	var currentKey string

	for _, line := range strings.Split(block, "\n") {
		key, value, isField := splitInfoLine(line)
		if isField {
			currentKey = key
		} else if currentKey != "" && strings.TrimSpace(line) != "" {
			// Continuation line of a multi-line list value.
			value = strings.TrimSpace(line)
			switch currentKey {
			case "Required By":
				pkg.RequiredBy = append(pkg.RequiredBy, strings.Fields(value)...)
			case "Optional For":
				pkg.OptionalFor = append(pkg.OptionalFor, strings.Fields(value)...)
			}
			continue
		} else {
			continue
		}

		switch key {
		case "Name":
			pkg.Name = value
		case "Version":
			pkg.Version = value
		case "Description":
			pkg.Description = value
		case "Installed Size":
			if size, err := units.ParseSize(value); err == nil {
				pkg.SizeBytes = size
			}
		case "Install Date":
			pkg.InstallDate = parseInstallDate(value)
		case "Required By":
			pkg.RequiredBy = parseNameList(value)
		case "Optional For":
			pkg.OptionalFor = parseNameList(value)
		case "Install Reason":
			if strings.Contains(value, "as a dependency") {
				pkg.IsDependency = true
			}
		}
	}

	if len(pkg.RequiredBy) > 0 {
		pkg.IsDependency = true
	}

	return pkg
}

// splitInfoLine splits a "Key : Value" line from pacman -Qi output.
// Continuation lines (indented values spanning multiple lines) are not
// fields and return isField=false.
func splitInfoLine(line string) (key, value string, isField bool) {
	if strings.HasPrefix(line, " ") || !strings.Contains(line, ":") {
		return "", "", false
	}
	parts := strings.SplitN(line, ":", 2)
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

func parseNameList(value string) []string {
	if value == "" || value == "None" {
		return nil
	}
	return strings.Fields(value)
}

func parseInstallDate(value string) time.Time {
	for _, layout := range installDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
