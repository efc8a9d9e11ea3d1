package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spigell/hh-analyst/internal/analysis"
	"github.com/spigell/hh-analyst/internal/postings"
)

const (
	DefaultDir    = "public"
	DefaultPrefix = "public"
)

// Artifact is a file written by a run.
type Artifact struct {
	// Name is the uuid based file name.
	Name string
	// Path is the location on disk.
	Path string
	// Ref is the path under which the file is served, e.g. public/<uuid>.csv.
	Ref string
}

// Store writes run artifacts into a directory served as static files.
type Store struct {
	dir    string
	prefix string
	newID  func() string
}

func New(dir, prefix string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %q: %w", dir, err)
	}
	return &Store{dir: dir, prefix: strings.Trim(prefix, "/"), newID: uuid.NewString}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// SavePostings writes the raw postings CSV.
func (s *Store) SavePostings(items []postings.Posting) (Artifact, error) {
	var buf bytes.Buffer
	if err := postings.WriteCSV(&buf, items); err != nil {
		return Artifact{}, fmt.Errorf("encode postings: %w", err)
	}
	return s.write(".csv", buf.Bytes())
}

// SaveResult writes the indented analysis JSON.
func (s *Store) SaveResult(res *analysis.Result) (Artifact, error) {
	data, err := res.JSON()
	if err != nil {
		return Artifact{}, fmt.Errorf("encode analysis: %w", err)
	}
	return s.write(".json", data)
}

// Open opens an artifact by its reference or bare name. References never escape the store directory.
func (s *Store) Open(ref string) (io.ReadCloser, error) {
	name := path.Base(strings.TrimPrefix(ref, s.prefix+"/"))
	if name == "." || name == "/" || name == "" {
		return nil, fmt.Errorf("invalid artifact reference %q", ref)
	}
	return os.Open(filepath.Join(s.dir, name))
}

func (s *Store) write(ext string, data []byte) (Artifact, error) {
	name := s.newID() + ext
	p := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*"+ext)
	if err != nil {
		return Artifact{}, fmt.Errorf("create artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Artifact{}, fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Artifact{}, fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return Artifact{}, fmt.Errorf("rename artifact: %w", err)
	}

	return Artifact{Name: name, Path: p, Ref: path.Join(s.prefix, name)}, nil
}
