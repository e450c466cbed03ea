package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"villagemap/internal/app/ports"
	"villagemap/internal/domain/town"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/fsnotify/fsnotify"
)

// Static serves a fixed catalog.
type Static town.Catalog

func (s Static) Catalog(context.Context) (town.Catalog, error) {
	return town.Catalog(s), nil
}

// FileProvider keeps the last successfully parsed house class file in memory.
// A failed reload keeps serving the previous catalog.
type FileProvider struct {
	path string

	mu      sync.RWMutex
	catalog town.Catalog
}

func Load(path string) (*FileProvider, error) {
	p := &FileProvider{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *FileProvider) Path() string {
	return p.path
}

func (p *FileProvider) Reload() error {
	cat, err := ReadFile(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.catalog = cat
	p.mu.Unlock()
	return nil
}

func (p *FileProvider) Catalog(context.Context) (town.Catalog, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.catalog, nil
}

// Watch reloads the catalog whenever its file is written or replaced, until
// ctx is done. The parent directory is watched so editors that save through a
// rename are still picked up.
func (p *FileProvider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		return err
	}
	target := filepath.Clean(p.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := p.Reload(); err != nil {
				hlog.Warnf("catalog: reload %s failed: %v", p.path, err)
				continue
			}
			hlog.Infof("catalog: reloaded %s", p.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			hlog.Warnf("catalog: watcher error: %v", err)
		}
	}
}

// ReadFile parses a house class file. A missing file is ports.ErrNotFound and
// unparseable content is ports.ErrParse.
func ReadFile(path string) (town.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return town.Catalog{}, fmt.Errorf("house classes %s: %w", path, ports.ErrNotFound)
		}
		return town.Catalog{}, err
	}
	return Decode(data)
}

func Decode(data []byte) (town.Catalog, error) {
	var cat town.Catalog
	if err := sonic.ConfigStd.Unmarshal(data, &cat); err != nil {
		return town.Catalog{}, fmt.Errorf("house classes: %w: %v", ports.ErrParse, err)
	}
	if cat.Classes == nil {
		cat.Classes = map[string]town.HouseClass{}
	}
	return cat, nil
}

var (
	_ ports.CatalogProvider = Static{}
	_ ports.CatalogProvider = (*FileProvider)(nil)
)
