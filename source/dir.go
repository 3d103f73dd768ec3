package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
)

const DefaultIndexFile = "index.html"

// Dir serves files below a directory of the local file system.
type Dir struct {
	// Root is the directory ids are resolved against.
	Root string
	// IndexFile is served for directory ids. Directories are not served if empty.
	IndexFile string
	// AllowDotfiles allows path segments starting with a dot.
	AllowDotfiles bool
}

// NewDir returns a Dir serving index.html for directories and hiding dotfiles.
func NewDir(root string) Dir {
	return Dir{Root: root, IndexFile: DefaultIndexFile}
}

func (d Dir) Open(ctx context.Context, id string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := d.resolve(id)
	if !ok {
		return nil, ErrNotFound
	}
	f, info, err := openFile(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		if d.IndexFile == "" {
			return nil, ErrNotFound
		}
		name = filepath.Join(name, d.IndexFile)
		if f, info, err = openFile(name); err != nil {
			return nil, err
		}
		if info.IsDir() {
			f.Close()
			return nil, ErrNotFound
		}
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotFound
	}
	return fileHandle{
		f: f,
		info: Info{
			Size:        uint64(info.Size()),
			ModTime:     info.ModTime(),
			ContentType: mime.TypeByExtension(filepath.Ext(name)),
		},
	}, nil
}

// resolve maps an id to a file name below Root. Ids with ".." segments or,
// unless allowed, dotfile segments do not resolve.
func (d Dir) resolve(id string) (string, bool) {
	if strings.ContainsAny(id, "\\\x00") {
		return "", false
	}
	for _, segment := range strings.Split(id, "/") {
		if segment == ".." {
			return "", false
		}
		if !d.AllowDotfiles && strings.HasPrefix(segment, ".") {
			return "", false
		}
	}
	root := d.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, filepath.FromSlash(path.Clean("/"+id))), true
}

func openFile(name string) (*os.File, fs.FileInfo, error) {
	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.ENOTDIR) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

type fileHandle struct {
	f    *os.File
	info Info
}

func (h fileHandle) Stat() (Info, error) {
	return h.info, nil
}

func (h fileHandle) ReadWindow(start, length uint64) (io.Reader, error) {
	if err := checkWindow(h.info.Size, start, length); err != nil {
		return nil, err
	}
	return io.NewSectionReader(h.f, int64(start), int64(length)), nil
}

func (h fileHandle) Close() error {
	return h.f.Close()
}
