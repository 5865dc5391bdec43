package collector

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Sri-dhar/arch-cleaner/internal/store"
)

// scanFilesystem walks each root and returns one ScannedItem per file
// plus a message per walk failure. Walk errors are never fatal.
func (c *Collector) scanFilesystem(roots []string, exclude *ExcludeMatcher) ([]*store.ScannedItem, []string) {
	var items []*store.ScannedItem
	var errs []string
	seen := make(map[string]bool)

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			log.WithError(err).Warnf("scan path not accessible: %s", root)
			errs = append(errs, fmt.Sprintf("scan path %s: %v", root, err))
			continue
		}

		if !info.IsDir() {
			if seen[root] || exclude.Excluded(root) {
				continue
			}
			if item := c.processFile(root, info); item != nil {
				seen[root] = true
				items = append(items, item)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.WithError(err).Warnf("error accessing %s", path)
				errs = append(errs, fmt.Sprintf("access %s: %v", path, err))
				return nil
			}
			if d.IsDir() {
				if path != root && exclude.Excluded(path) {
					return fs.SkipDir
				}
				return nil
			}
			if seen[path] || exclude.Excluded(path) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				// File disappeared between readdir and stat.
				if !os.IsNotExist(err) {
					log.WithError(err).Warnf("could not stat %s", path)
					errs = append(errs, fmt.Sprintf("stat %s: %v", path, err))
				}
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}

			if item := c.processFile(path, info); item != nil {
				seen[path] = true
				items = append(items, item)
			}
			return nil
		})
		if err != nil {
			log.WithError(err).Warnf("walk failed for %s", root)
			errs = append(errs, fmt.Sprintf("walk %s: %v", root, err))
		}
	}

	return items, errs
}

// processFile builds the inventory record for one regular file, hashing
// it when duplicate detection wants its content identity.
func (c *Collector) processFile(path string, info os.FileInfo) *store.ScannedItem {
	item := &store.ScannedItem{
		Path:       path,
		Type:       classify(path),
		SizeBytes:  info.Size(),
		ModifiedAt: info.ModTime(),
		AccessedAt: accessTime(info),
	}

	if c.shouldHash(path, info.Size()) {
		hash, err := hashFile(path)
		if err != nil {
			log.WithError(err).Warnf("could not hash %s", path)
		} else {
			item.ContentHash = hash
		}
	}

	return item
}

func (c *Collector) shouldHash(path string, size int64) bool {
	if !c.opts.HashEnabled || size < c.opts.MinHashSize {
		return false
	}
	if len(c.opts.DuplicateScanPaths) == 0 {
		return true
	}
	for _, root := range c.opts.DuplicateScanPaths {
		if path == root || strings.HasPrefix(path, root+"/") {
			return true
		}
	}
	return false
}

// classify picks an item type from the path alone. Log files win over
// the generic file type, cache-looking paths win over both.
func classify(path string) store.ItemType {
	itemType := store.ItemFile
	name := strings.ToLower(filepath.Base(path))
	if strings.Contains(name, ".log") {
		itemType = store.ItemLog
	}
	if strings.Contains(path, "/.cache/") || strings.Contains(name, "cache") {
		itemType = store.ItemCache
	}
	return itemType
}

// accessTime pulls atime out of the platform stat data, falling back to
// mtime when unavailable.
func accessTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Atim.Sec, st.Atim.Nsec)
	}
	return info.ModTime()
}

// hashFile computes the SHA-256 content hash of a file, streaming in
// fixed-size chunks.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 64*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
