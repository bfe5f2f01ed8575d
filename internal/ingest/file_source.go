package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/davestroud/publix/internal/model"
)

// FileSource serves store records from a seed file on disk. When a cache is
// supplied the raw file bytes are held there, so repeated fetches across
// states do not reread the file.
type FileSource struct {
	path  string
	cache *Cache
}

// NewFileSource creates a file-backed source. cache may be nil.
func NewFileSource(path string, cache *Cache) *FileSource {
	return &FileSource{path: path, cache: cache}
}

// Name identifies the source in attempt logs.
func (f *FileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

// FetchStores parses the seed file and returns its store records for the
// given state. A state with no records is an empty (not error) result, so
// the chain moves on to the next source.
func (f *FileSource) FetchStores(ctx context.Context, state string) ([]model.StoreRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data := f.read()
	if data == nil {
		b, err := os.ReadFile(f.path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read seed file %s", f.path)
		}
		data = b
		if f.cache != nil {
			f.cache.Put(f.path, b)
		}
	}

	stores, _, err := ParseSeed(data)
	if err != nil {
		return nil, err
	}

	want := strings.ToUpper(strings.TrimSpace(state))
	var out []model.StoreRecord
	for _, s := range stores {
		if strings.ToUpper(s.State) == want {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *FileSource) read() []byte {
	if f.cache == nil {
		return nil
	}
	return f.cache.Get(f.path)
}
