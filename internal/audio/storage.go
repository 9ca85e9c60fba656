package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	rawSubdir       = "raw"
	convertedSubdir = "converted"
	defaultRawExt   = ".mp3"
)

// StageResult describes one stage's artifact.
type StageResult struct {
	AbsolutePath string `json:"absolutePath"`
	RelativePath string `json:"relativePath"`
	Format       string `json:"format"`
	Skipped      bool   `json:"skipped"`
}

// Storage maps show artifacts onto the storage root.
type Storage struct {
	root string
}

// NewStorage returns a Storage rooted at root.
func NewStorage(root string) (*Storage, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage root required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &Storage{root: abs}, nil
}

// Root returns the absolute storage root.
func (s *Storage) Root() string {
	return s.root
}

// Abs resolves a stored relative path. Absolute paths are returned unchanged.
func (s *Storage) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Rel returns abs relative to the root in slash form.
func (s *Storage) Rel(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// RawPath is the download destination for a show.
func (s *Storage) RawPath(showID, ext string) string {
	return filepath.Join(s.root, rawSubdir, showID+ext)
}

// ConvertedPath is the transcode destination for a show.
func (s *Storage) ConvertedPath(showID, format string) string {
	return filepath.Join(s.root, convertedSubdir, showID+"."+format)
}

// RawExtension infers the extension and format of an archive URL from its
// path, falling back to mp3.
func RawExtension(archiveURL string) (ext, format string) {
	parsed, err := url.Parse(archiveURL)
	if err == nil {
		if e := strings.ToLower(path.Ext(parsed.Path)); e != "" && e != "." {
			return e, strings.TrimPrefix(e, ".")
		}
	}
	return defaultRawExt, strings.TrimPrefix(defaultRawExt, ".")
}

func regularFileExists(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// tempSibling names the in-progress file for target. The extension is kept so
// tools that infer a container from it still work.
func tempSibling(target string) string {
	ext := filepath.Ext(target)
	return strings.TrimSuffix(target, ext) + ".partial" + ext
}
