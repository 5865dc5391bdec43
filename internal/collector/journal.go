package collector

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	log "github.com/sirupsen/logrus"

	"github.com/Sri-dhar/arch-cleaner/internal/store"
	"github.com/Sri-dhar/arch-cleaner/internal/units"
)

// journalctl reports e.g. "Archived and active journals take up 1.1G on disk."
var journalUsageRe = regexp.MustCompile(`take up\s+([\d.]+[BKMGT]?)\s+on disk`)

// collectJournal represents the systemd journal as a single inventory
// item for its directory, sized via journalctl with a directory walk as
// fallback.
func (c *Collector) collectJournal() []*store.ScannedItem {
	var journalDir string
	for _, dir := range c.opts.JournalDirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			journalDir = dir
			break
		}
	}
	if journalDir == "" {
		log.Debug("no systemd journal directory found")
		return nil
	}

	size, ok := c.journalUsage()
	if !ok {
		size, ok = journalDirSize(journalDir)
		if !ok {
			return nil
		}
	}

	info, err := os.Stat(journalDir)
	if err != nil {
		log.WithError(err).Warnf("could not stat journal directory %s", journalDir)
		return nil
	}

	return []*store.ScannedItem{{
		Path:       journalDir,
		Type:       store.ItemJournal,
		SizeBytes:  size,
		ModifiedAt: info.ModTime(),
		AccessedAt: accessTime(info),
	}}
}

// journalUsage asks journalctl for the total journal size on disk.
func (c *Collector) journalUsage() (int64, bool) {
	out, err := c.run("journalctl", "--disk-usage")
	if err != nil {
		log.WithError(err).Warn("journalctl --disk-usage failed, falling back to directory scan")
		return 0, false
	}

	m := journalUsageRe.FindStringSubmatch(string(out))
	if m == nil {
		log.Warn("could not parse journalctl --disk-usage output")
		return 0, false
	}

	size, err := units.ParseSize(m[1])
	if err != nil {
		log.Warnf("could not parse journal size %q", m[1])
		return 0, false
	}

	return size, true
}

func journalDirSize(dir string) (int64, bool) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Warnf("could not scan journal directory %s", dir)
		return 0, false
	}
	return total, true
}
