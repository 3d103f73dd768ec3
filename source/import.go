package source

import (
	"context"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Import copies all regular files below dir.Root into store, keeping their
// modification times. The ids are the slash separated paths relative to
// the root, starting with "/". Dotfiles are skipped unless dir allows them.
// It returns the number of imported files.
func Import(ctx context.Context, store Store, dir Dir) (int, error) {
	count := 0
	err := filepath.WalkDir(dir.Root, func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir.Root, name)
		if err != nil {
			return err
		}
		id := path.Clean("/" + filepath.ToSlash(rel))
		if !dir.AllowDotfiles && rel != "." && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		ids := []string{id}
		// a directory id resolves to its index file, as with Dir
		if dir.IndexFile != "" && entry.Name() == dir.IndexFile {
			ids = append(ids, path.Dir(id))
			if parent := path.Dir(id); parent != "/" {
				ids = append(ids, parent+"/")
			}
		}
		for _, id := range ids {
			if err := store.Put(Entry{
				ID:          id,
				Modified:    info.ModTime(),
				ContentType: mime.TypeByExtension(filepath.Ext(name)),
				Bytes:       data,
			}); err != nil {
				return err
			}
		}
		log.Trace().Strs("ids", ids).Int("size", len(data)).Msg("Imported")
		count++
		return nil
	})
	return count, err
}
