package archive

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type TreeOptions struct {
	// directory to walk and the entry prefix its contents are stored under
	Source string
	Root   string

	// absolute paths never entered, e.g. the directory archives are written to
	SkipPaths []string

	Excluder Excluder

	// files above this size are skipped, 0 disables the limit
	MaxFileSize int64

	Logger logrus.FieldLogger
}

type TreeStats struct {
	Files       int
	Directories int
	Bytes       int64

	SkippedLarge    int
	SkippedExcluded int
}

type pending struct {
	dir   string
	entry string
	rel   string
}

// AddTree walks opts.Source depth first with an explicit stack and adds every
// regular file that passes the exclusion rules. Symlinks and other special
// files are not followed.
func (w *Writer) AddTree(opts TreeOptions) (TreeStats, error) {
	var stats TreeStats

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[filepath.Clean(p)] = struct{}{}
	}

	source := filepath.Clean(opts.Source)
	stack := []pending{{dir: source, entry: opts.Root}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := readDir(w, top.dir)
		if err != nil {
			return stats, errors.Wrapf(err, "unable to read directory %s", top.dir)
		}

		// pushed in reverse so that siblings are visited in name order
		var subdirs []pending

		for _, info := range entries {
			full := filepath.Join(top.dir, info.Name())
			entry := path.Join(top.entry, info.Name())
			rel := path.Join(top.rel, info.Name())

			if _, ok := skip[full]; ok {
				logger.WithField("path", full).Debug("Skipping backup directory")
				continue
			}

			switch {
			case info.IsDir():
				if opts.Excluder.Excluded(rel, true) {
					stats.SkippedExcluded++
					continue
				}

				err = w.AddDirectory(entry)
				if err != nil {
					return stats, err
				}
				stats.Directories++

				subdirs = append(subdirs, pending{dir: full, entry: entry, rel: rel})

			case info.Mode().IsRegular():
				if opts.Excluder.Excluded(rel, false) {
					stats.SkippedExcluded++
					continue
				}

				if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
					logger.WithFields(logrus.Fields{"path": full, "size": info.Size()}).Debug("Skipping file above size limit")
					stats.SkippedLarge++
					continue
				}

				err = w.AddFile(full, entry)
				if err != nil {
					return stats, err
				}
				stats.Files++
				stats.Bytes += info.Size()
			}
		}

		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return stats, nil
}

func readDir(w *Writer, dir string) ([]os.FileInfo, error) {
	f, err := w.fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.Readdir(-1)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

// Excluder decides which parts of the tree are left out. Names are matched
// against the base name of directories at any depth. Patterns use
// path.Match syntax: a pattern without a slash matches base names, a pattern
// with a slash matches the path relative to the walk root, and a trailing
// "/*" excludes the whole matching directory.
type Excluder struct {
	Names    []string
	Patterns []string
}

func (e Excluder) Excluded(rel string, isDir bool) bool {
	base := path.Base(rel)

	if isDir {
		for _, name := range e.Names {
			if base == name {
				return true
			}
		}
	}

	for _, pattern := range e.Patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if dirPattern := strings.TrimSuffix(pattern, "/*"); dirPattern != pattern {
			if isDir && (match(dirPattern, base) || match(dirPattern, rel)) {
				return true
			}
			continue
		}

		if strings.Contains(pattern, "/") {
			if match(pattern, rel) {
				return true
			}
			continue
		}

		if match(pattern, base) {
			return true
		}
	}

	return false
}

func match(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
