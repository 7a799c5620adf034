package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const metaSuffix = ".meta.json"

// sidecar is the on-disk shape of <key>.meta.json.
type sidecar struct {
	ContentType string            `json:"contentType,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// LocalProvider stores objects as plain files under a base directory.
type LocalProvider struct {
	basePath string
	baseURL  string
}

// NewLocalProvider returns a provider rooted at basePath whose URLs start with baseURL.
// The directory is created lazily on first upload.
func NewLocalProvider(basePath, baseURL string) *LocalProvider {
	return &LocalProvider{
		basePath: filepath.Clean(basePath),
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// localKey is cleanKey plus a ban on names that collide with sidecar files.
func localKey(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(path.Base(k), metaSuffix) {
		return "", ErrInvalidKey
	}
	return k, nil
}

func (p *LocalProvider) filePath(key string) (string, string, error) {
	k, err := localKey(key)
	if err != nil {
		return "", "", err
	}
	return k, filepath.Join(p.basePath, filepath.FromSlash(k)), nil
}

// Upload writes the payload, creating parent directories, and records content type and
// metadata in a sidecar file.
func (p *LocalProvider) Upload(ctx context.Context, key string, src Source, opts *UploadOptions) (*StoredFile, error) {
	k, fp, err := p.filePath(key)
	if err != nil {
		return nil, err
	}

	data, err := ReadAll(src)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %q: %w", k, err)
	}
	if err := os.WriteFile(fp, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %q: %w", k, err)
	}

	userMeta := opts.metadata()
	meta, err := json.Marshal(sidecar{ContentType: opts.contentType(), Metadata: userMeta})
	if err != nil {
		return nil, fmt.Errorf("encode metadata for %q: %w", k, err)
	}
	if err := os.WriteFile(fp+metaSuffix, meta, 0o644); err != nil {
		return nil, fmt.Errorf("write metadata for %q: %w", k, err)
	}

	return &StoredFile{
		Key:         k,
		URL:         joinURL(p.baseURL, k),
		Size:        int64(len(data)),
		ContentType: opts.contentType(),
		Metadata:    userMeta,
	}, nil
}

// Download reads the whole file.
func (p *LocalProvider) Download(ctx context.Context, key string) ([]byte, error) {
	k, fp, err := p.filePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fp)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %q: %w", k, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", k, err)
	}
	return data, nil
}

// Delete removes the file and its sidecar. Missing files are not an error; any other
// filesystem failure is returned.
func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	k, fp, err := p.filePath(key)
	if err != nil {
		return err
	}
	if err := removeIfExists(fp); err != nil {
		return fmt.Errorf("delete %q: %w", k, err)
	}
	if err := removeIfExists(fp + metaSuffix); err != nil {
		return fmt.Errorf("delete metadata for %q: %w", k, err)
	}
	return nil
}

func removeIfExists(name string) error {
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether a regular file is stored under key.
func (p *LocalProvider) Exists(ctx context.Context, key string) bool {
	_, fp, err := p.filePath(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(fp)
	return err == nil && info.Mode().IsRegular()
}

// SignedURL returns the permanent direct URL. The local backend has no way to enforce
// expiry and does not check that key exists.
func (p *LocalProvider) SignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	k, err := localKey(key)
	if err != nil {
		return "", err
	}
	return joinURL(p.baseURL, k), nil
}

// Metadata stats the file and merges whatever the sidecar holds.
func (p *LocalProvider) Metadata(ctx context.Context, key string) (*StoredFile, bool) {
	k, fp, err := p.filePath(key)
	if err != nil {
		return nil, false
	}
	info, err := os.Stat(fp)
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}

	file := &StoredFile{
		Key:         k,
		URL:         joinURL(p.baseURL, k),
		Size:        info.Size(),
		ContentType: DefaultContentType,
	}

	raw, err := os.ReadFile(fp + metaSuffix)
	if err != nil {
		return file, true
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return file, true
	}
	if sc.ContentType != "" {
		file.ContentType = sc.ContentType
	}
	file.Metadata = sc.Metadata
	return file, true
}

// List walks the base directory and returns every stored file whose key starts with
// prefix, in lexical key order. Enumeration failures yield an empty result.
func (p *LocalProvider) List(ctx context.Context, prefix string) ([]StoredFile, error) {
	prefix = strings.ReplaceAll(prefix, "\\", "/")
	files := []StoredFile{}

	root := p.basePath
	if dir := path.Dir(prefix); strings.Contains(prefix, "/") && dir != "." {
		if _, err := cleanKey(dir); err != nil {
			return files, nil
		}
		root = filepath.Join(p.basePath, filepath.FromSlash(dir))
	}

	var found []StoredFile
	err := filepath.WalkDir(root, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !d.Type().IsRegular() || strings.HasSuffix(d.Name(), metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(p.basePath, fp)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		if file, ok := p.Metadata(ctx, key); ok {
			found = append(found, *file)
		}
		return nil
	})
	if err != nil {
		return files, nil
	}
	return append(files, found...), nil
}
