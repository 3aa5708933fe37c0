// Package archive reads stylesheets packed into zip archives.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// WalkFunc is called for each matching file in archive with its path inside
// archive. If an error is returned, processing stops.
type WalkFunc func(name string, file *zip.File) error

// Walk visits regular files in archive order which names end with one of
// suffixes (case insensitive), all files when no suffixes given. Archives
// with absolute or traversing entry names are rejected.
func Walk(archive string, walkFn WalkFunc, suffixes ...string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !hasSuffix(name, suffixes) {
			continue
		}
		if err := walkFn(name, f); err != nil {
			return err
		}
	}
	return nil
}

// Stylesheets returns content of every .css file in archive joined with
// newlines, and names of the files in the same order.
func Stylesheets(archive string) ([]byte, []string, error) {
	var (
		out   []byte
		names []string
	)
	err := Walk(archive, func(name string, f *zip.File) error {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", name, err)
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		out = append(out, data...)
		names = append(names, name)
		return nil
	}, ".css")
	if err != nil {
		return nil, nil, err
	}
	return out, names, nil
}

func hasSuffix(name string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// isSafePath returns false for absolute paths and those containing ".."
// components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
