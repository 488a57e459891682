package tools

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"agentide/internal/util"
)

const (
	defaultMaxReadBytes   = 1 << 20
	defaultMaxListEntries = 2000
)

// LocalFS performs file effects on the local disk. Paths are used as given;
// callers resolve them against the project root first.
type LocalFS struct {
	MaxReadBytes   int64
	MaxListEntries int
	IncludeHidden  bool
	SearchOpts     SearchOptions
}

func NewLocalFS() *LocalFS {
	return &LocalFS{}
}

type DirEntry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

type FileStat struct {
	Path    string
	IsDir   bool
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
}

func (f *LocalFS) maxReadBytes() int64 {
	if f == nil || f.MaxReadBytes <= 0 {
		return defaultMaxReadBytes
	}
	return f.MaxReadBytes
}

func (f *LocalFS) maxListEntries() int {
	if f == nil || f.MaxListEntries <= 0 {
		return defaultMaxListEntries
	}
	return f.MaxListEntries
}

func (f *LocalFS) Read(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if limit := f.maxReadBytes(); info.Size() > limit {
		return "", fmt.Errorf("file is too large (%s, limit %s)", humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(limit)))
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 8192)
	sample, err := reader.Peek(8192)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", err
	}
	if isLikelyBinary(sample) {
		return "", errors.New("refusing to read binary file")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write replaces path with content atomically: the data goes to a temp file in
// the same directory which is then renamed over the target. Missing parent
// directories are created.
func (f *LocalFS) Write(path, content string) error {
	if path == "" {
		return errors.New("path is required")
	}
	if err := util.EnsureParentDir(path); err != nil {
		return err
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".agentide_write_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := io.WriteString(tmp, content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Delete removes a file or an empty directory.
func (f *LocalFS) Delete(path string) error {
	return os.Remove(path)
}

// Rename moves from to to, falling back to copy+remove across devices. It
// never overwrites an existing destination.
func (f *LocalFS) Rename(from, to string) error {
	return util.Move(from, to)
}

func (f *LocalFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ListDir lists the direct children of path, directories first, then by name.
// Hidden entries are skipped unless IncludeHidden is set.
func (f *LocalFS) ListDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !f.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		e := DirEntry{Name: name, IsDir: entry.IsDir()}
		if info, err := entry.Info(); err == nil {
			e.ModTime = info.ModTime()
			if !e.IsDir {
				e.Size = info.Size()
			}
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return out[i].Name < out[j].Name
	})
	if limit := f.maxListEntries(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Replace substitutes every occurrence of old with new in path and returns the
// number of replacements. It fails when old does not occur.
func (f *LocalFS) Replace(path, old, new string) (int, error) {
	if old == "" {
		return 0, errors.New("old text is empty")
	}
	content, err := f.Read(path)
	if err != nil {
		return 0, err
	}
	n := strings.Count(content, old)
	if n == 0 {
		return 0, fmt.Errorf("text %q not found in %s", truncateRunes(old, 40), filepath.Base(path))
	}
	if err := f.Write(path, strings.ReplaceAll(content, old, new)); err != nil {
		return 0, err
	}
	return n, nil
}

func (f *LocalFS) Stat(path string) (FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileStat{}, err
	}
	return FileStat{
		Path:    path,
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}, nil
}

// FormatEntries renders a listing one entry per line, directories with a
// trailing separator and files with a human readable size.
func FormatEntries(entries []DirEntry) string {
	if len(entries) == 0 {
		return "(no entries)"
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			lines = append(lines, e.Name+string(os.PathSeparator))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", e.Name, humanize.Bytes(uint64(e.Size))))
	}
	return strings.Join(lines, "\n")
}

func (s FileStat) Format() string {
	kind := "file"
	if s.IsDir {
		kind = "directory"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "path: %s\n", s.Path)
	fmt.Fprintf(&b, "type: %s\n", kind)
	if !s.IsDir {
		fmt.Fprintf(&b, "size: %s (%s bytes)\n", humanize.Bytes(uint64(s.Size)), humanize.Comma(s.Size))
	}
	fmt.Fprintf(&b, "mode: %s\n", s.Mode)
	fmt.Fprintf(&b, "modified: %s (%s)", s.ModTime.Format(time.RFC3339), humanize.Time(s.ModTime))
	return b.String()
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
