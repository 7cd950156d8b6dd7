package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/solardome/strategy-cockpit/internal/cockpit"
	enginereport "github.com/solardome/strategy-cockpit/internal/report"
)

var ErrNotFound = errors.New("strategy not found")

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

type entry struct {
	digest string
	doc    cockpit.Strategy
}

// Store serves strategy documents from a directory of *.yaml files keyed by
// file stem. Parsed documents are cached until the file content changes.
type Store struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]entry
}

func New(dir string) *Store {
	return &Store{dir: dir, cache: map[string]entry{}}
}

func (s *Store) Dir() string { return s.dir }

// List returns the ids of every strategy file, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := idFromName(e.Name())
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Get returns the parsed strategy and the input digest it was read with.
func (s *Store) Get(id string) (cockpit.Strategy, cockpit.InputDigest, error) {
	if !validID.MatchString(id) {
		return cockpit.Strategy{}, cockpit.InputDigest{}, ErrNotFound
	}
	path, err := s.pathFor(id)
	if err != nil {
		return cockpit.Strategy{}, cockpit.InputDigest{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cockpit.Strategy{}, cockpit.InputDigest{}, ErrNotFound
		}
		return cockpit.Strategy{}, cockpit.InputDigest{}, fmt.Errorf("read strategy %s: %w", id, err)
	}
	digest := enginereport.SHA256Hex(b)
	in := cockpit.InputDigest{Kind: "strategy_yaml", Path: filepath.Base(path), SHA256: digest, ReadOK: true}

	s.mu.RLock()
	cached, ok := s.cache[id]
	s.mu.RUnlock()
	if ok && cached.digest == digest {
		return cached.doc, in, nil
	}

	doc, err := cockpit.ParseStrategy(filepath.Base(path), b)
	if err != nil {
		return cockpit.Strategy{}, in, err
	}
	s.mu.Lock()
	s.cache[id] = entry{digest: digest, doc: doc}
	s.mu.Unlock()
	return doc, in, nil
}

func (s *Store) pathFor(id string) (string, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(s.dir, id+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat strategy %s: %w", id, err)
		}
	}
	return "", ErrNotFound
}

func idFromName(name string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml"} {
		if strings.HasSuffix(name, ext) {
			id := strings.TrimSuffix(name, ext)
			return id, validID.MatchString(id)
		}
	}
	return "", false
}
