// Package joblog maintains the symlink naming convention for job output
// files: each job category gets <category>.out and <category>.err links
// pointing at the real stdout/stderr files wherever the scheduler wrote
// them.
package joblog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Paths points at the stdout and stderr files produced by a job.
type Paths struct {
	Stdout string
	Stderr string
}

// Link creates the category's .out and .err symlinks in dir. With
// incrementIndex the category gains a numeric suffix one past the highest
// already present, so successive runs line up side by side; otherwise any
// existing links for the category are replaced.
func Link(dir, category string, paths Paths, incrementIndex bool) error {
	if incrementIndex {
		category = fmt.Sprintf("%s_%d", category, nextIndex(dir, category))
	} else if err := removeExisting(dir, category); err != nil {
		return err
	}
	if err := os.Symlink(paths.Stderr, filepath.Join(dir, category+".err")); err != nil {
		return fmt.Errorf("link stderr: %w", err)
	}
	if err := os.Symlink(paths.Stdout, filepath.Join(dir, category+".out")); err != nil {
		return fmt.Errorf("link stdout: %w", err)
	}
	return nil
}

// nextIndex finds the next free numeric suffix for prefix inside dir.
func nextIndex(dir, prefix string) int {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_*.*"))
	if err != nil {
		return 0
	}
	next := 0
	for _, m := range matches {
		ext := filepath.Ext(m)
		if ext != ".err" && ext != ".out" {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(m), ext)
		cut := strings.LastIndex(stem, "_")
		if cut < 0 {
			continue
		}
		n, err := strconv.Atoi(stem[cut+1:])
		if err != nil {
			continue
		}
		if n+1 > next {
			next = n + 1
		}
	}
	return next
}

func removeExisting(dir, category string) error {
	for _, ext := range []string{".err", ".out"} {
		link := filepath.Join(dir, category+ext)
		info, err := os.Lstat(link)
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink == 0 {
			continue
		}
		if err := os.Remove(link); err != nil {
			return fmt.Errorf("remove %s: %w", link, err)
		}
	}
	return nil
}
