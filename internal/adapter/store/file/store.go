package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"villagemap/internal/app/ports"
	"villagemap/internal/domain/town"

	"github.com/bytedance/sonic"
)

// ErrInvalidVillageName is reported as not found: no town can live under such a name.
var ErrInvalidVillageName = fmt.Errorf("invalid village name: %w", ports.ErrNotFound)

// TownStore keeps one <village>.json per town under Dir. Writes replace the
// whole file through a rename so readers never see a partial document.
type TownStore struct {
	Dir string
}

func (s TownStore) Load(_ context.Context, village string) (*town.Document, error) {
	path, err := s.path(village)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("town file %s: %w", filepath.Base(path), ports.ErrNotFound)
		}
		return nil, err
	}
	doc := &town.Document{}
	if err := sonic.ConfigStd.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("town file %s: %w: %v", filepath.Base(path), ports.ErrParse, err)
	}
	return doc, nil
}

func (s TownStore) Save(_ context.Context, village string, doc *town.Document) (time.Time, error) {
	path, err := s.path(village)
	if err != nil {
		return time.Time{}, err
	}
	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return time.Time{}, fmt.Errorf("encode town %s: %w", village, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s TownStore) ModTime(_ context.Context, village string) (time.Time, error) {
	path, err := s.path(village)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, fmt.Errorf("town file %s: %w", filepath.Base(path), ports.ErrNotFound)
		}
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s TownStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.EqualFold(filepath.Ext(name), ".json") {
			out = append(out, strings.TrimSuffix(name, filepath.Ext(name)))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s TownStore) path(village string) (string, error) {
	village = strings.TrimSpace(village)
	if village == "" || strings.ContainsAny(village, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVillageName, village)
	}
	return secureJoin(s.Dir, village+".json")
}

func secureJoin(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", ErrInvalidVillageName
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(rootAbs, rel))
	prefix := rootAbs + string(filepath.Separator)
	if !strings.HasPrefix(target, prefix) {
		return "", ErrInvalidVillageName
	}
	return target, nil
}

const defaultFileMode os.FileMode = 0o644

// writeFileAtomic replaces path through a temp file. The replacement keeps the
// existing file's permissions; new files get defaultFileMode.
func writeFileAtomic(path string, data []byte) error {
	mode := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// TxManager serializes load -> mutate -> persist cycles inside this process.
// Other processes writing the same files are only detected, not excluded.
type TxManager struct {
	mu *sync.Mutex
}

func NewTxManager() TxManager {
	return TxManager{mu: &sync.Mutex{}}
}

func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

var (
	_ ports.TownStore = TownStore{}
	_ ports.TxManager = TxManager{}
)
