package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// ArtifactStore keeps pipeline outputs on disk, one directory per job:
//
//	<root>/<job-id>/<base><suffix>
//
// The empty scope addresses <root> itself, the flat layout in which every run
// shares one directory and "current" means most recently modified.
//
// Writes are atomic (temp file in the destination directory, fsync, rename),
// so readers never observe a partially written artifact.
type ArtifactStore struct {
	root string
	now  func() time.Time
}

func NewArtifactStore(root string) (*ArtifactStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("artifact store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &StoreError{Op: "init", Path: root, Err: err}
	}
	return &ArtifactStore{root: root, now: time.Now}, nil
}

// Root returns the output directory.
func (s *ArtifactStore) Root() string {
	return s.root
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.HasPrefix(name, ".")
}

func (s *ArtifactStore) dir(scope string) (string, error) {
	if scope == "" {
		return s.root, nil
	}
	if !validName(scope) {
		return "", fmt.Errorf("invalid job scope %q", scope)
	}
	return filepath.Join(s.root, scope), nil
}

// Write stores content as an artifact of kind named base+suffix.
func (s *ArtifactStore) Write(scope string, kind model.Kind, base string, content []byte) (*model.Artifact, error) {
	return s.WriteFrom(scope, kind, base, bytes.NewReader(content))
}

// WriteFrom is Write for streamed content.
func (s *ArtifactStore) WriteFrom(scope string, kind model.Kind, base string, r io.Reader) (*model.Artifact, error) {
	suffix := kind.Suffix()
	if suffix == "" {
		return nil, fmt.Errorf("cannot write artifact of kind %q", kind)
	}
	if !validName(base) {
		return nil, fmt.Errorf("invalid artifact base name %q", base)
	}
	dir, err := s.dir(scope)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StoreError{Op: "write", Path: dir, Err: err}
	}

	name := base + suffix
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return nil, &StoreError{Op: "write", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	fail := func(err error) (*model.Artifact, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, &StoreError{Op: "write", Path: path, Err: err}
	}

	if _, err := io.Copy(tmp, r); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	// The store clock, not the filesystem's coarse timestamp, orders artifacts.
	now := s.now()
	if err := os.Chtimes(tmpPath, now, now); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, &StoreError{Op: "write", Path: path, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &StoreError{Op: "write", Path: path, Err: err}
	}
	return describe(scope, dir, info), nil
}

func describe(scope, dir string, info fs.FileInfo) *model.Artifact {
	return &model.Artifact{
		Job:     scope,
		Kind:    model.KindOf(info.Name()),
		Name:    info.Name(),
		Path:    filepath.Join(dir, info.Name()),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// scan calls fn for every recognised artifact of kind in scope. A missing
// scope directory yields nothing.
func (s *ArtifactStore) scan(scope string, kind model.Kind, fn func(*model.Artifact)) error {
	dir, err := s.dir(scope)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &StoreError{Op: "list", Path: dir, Err: err}
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		k := model.KindOf(e.Name())
		if k == model.KindUnknown || (kind != model.KindAny && k != kind) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return &StoreError{Op: "list", Path: filepath.Join(dir, e.Name()), Err: err}
		}
		fn(describe(scope, dir, info))
	}
	return nil
}

// newer orders artifacts by modification time, then by name so that equal
// timestamps resolve the same way on every call.
func newer(a, b *model.Artifact) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.Name > b.Name
}

// Latest returns the most recently modified artifact of kind in scope, or
// ErrNotFound.
func (s *ArtifactStore) Latest(scope string, kind model.Kind) (*model.Artifact, error) {
	var latest *model.Artifact
	err := s.scan(scope, kind, func(a *model.Artifact) {
		if latest == nil || newer(a, latest) {
			latest = a
		}
	})
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, kind)
	}
	return latest, nil
}

// List returns the artifacts of kind in scope, most recent first. Pass
// model.KindAny for every recognised artifact.
func (s *ArtifactStore) List(scope string, kind model.Kind) ([]model.Artifact, error) {
	var out []*model.Artifact
	if err := s.scan(scope, kind, func(a *model.Artifact) { out = append(out, a) }); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i], out[j]) })

	result := make([]model.Artifact, len(out))
	for i, a := range out {
		result[i] = *a
	}
	return result, nil
}

// Find looks an artifact up by filename.
func (s *ArtifactStore) Find(scope, name string) (*model.Artifact, error) {
	if !validName(name) || model.KindOf(name) == model.KindUnknown {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	dir, err := s.dir(scope)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, &StoreError{Op: "stat", Path: filepath.Join(dir, name), Err: err}
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return describe(scope, dir, info), nil
}

// Open opens an artifact for reading.
func (s *ArtifactStore) Open(a *model.Artifact) (*os.File, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, &StoreError{Op: "open", Path: a.Path, Err: err}
	}
	return f, nil
}

// ReadJSON decodes a JSON artifact into v.
func (s *ArtifactStore) ReadJSON(a *model.Artifact, v any) error {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return &StoreError{Op: "read", Path: a.Path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &StoreError{Op: "decode", Path: a.Path, Err: err}
	}
	return nil
}

// Jobs returns the job scopes present on disk, most recently modified first.
func (s *ArtifactStore) Jobs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &StoreError{Op: "list", Path: s.root, Err: err}
	}

	type scoped struct {
		id  string
		mod time.Time
	}
	var scopes []scoped
	for _, e := range entries {
		if !e.IsDir() || !validName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		scopes = append(scopes, scoped{id: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(scopes, func(i, j int) bool {
		if !scopes[i].mod.Equal(scopes[j].mod) {
			return scopes[i].mod.After(scopes[j].mod)
		}
		return scopes[i].id > scopes[j].id
	})

	ids := make([]string, len(scopes))
	for i, sc := range scopes {
		ids[i] = sc.id
	}
	return ids, nil
}

// LatestJob returns the job scope whose compliance report is the most recent
// among the scopes keep accepts (nil accepts all). Jobs without a report are
// skipped. It returns ErrNotFound when no job qualifies.
func (s *ArtifactStore) LatestJob(keep func(scope string) bool) (string, error) {
	scopes, err := s.Jobs()
	if err != nil {
		return "", err
	}

	var best *model.Artifact
	for _, scope := range scopes {
		if keep != nil && !keep(scope) {
			continue
		}
		report, err := s.Latest(scope, model.KindComplianceReport)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if best == nil || report.ModTime.After(best.ModTime) ||
			(report.ModTime.Equal(best.ModTime) && report.Job > best.Job) {
			best = report
		}
	}
	if best == nil {
		return "", ErrNotFound
	}
	return best.Job, nil
}

// RemoveScope deletes every artifact of a job.
func (s *ArtifactStore) RemoveScope(scope string) error {
	if scope == "" {
		return errors.New("refusing to remove the shared output directory")
	}
	dir, err := s.dir(scope)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return &StoreError{Op: "remove", Path: dir, Err: err}
	}
	return nil
}
