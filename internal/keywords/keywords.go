// Package keywords loads the operator-editable bait and safety word lists.
package keywords

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"uploader/internal/apperr"
	"uploader/internal/options"
	"uploader/internal/safety"
)

// File is the on-disk layout. Omitted keys keep their built-in values.
type File struct {
	Bait               []string               `json:"bait,omitempty"`
	StrongBait         []string               `json:"strong_bait,omitempty"`
	BaitPriceRatio     *float64               `json:"bait_price_ratio,omitempty"`
	Banned             map[string][]string    `json:"banned,omitempty"`
	Excluded           []string               `json:"excluded,omitempty"`
	SafeContext        map[string][]string    `json:"safe_context,omitempty"`
	GeneralSafeContext []string               `json:"general_safe_context,omitempty"`
	CategoryTiers      map[string]safety.Tier `json:"category_tiers,omitempty"`
	DefaultTier        *safety.Tier           `json:"default_tier,omitempty"`
}

// Set is the resolved configuration handed to the classifiers.
type Set struct {
	Bait   options.BaitConfig
	Safety safety.Rules
}

func Defaults() Set {
	return Set{
		Bait:   options.DefaultBaitConfig(),
		Safety: safety.DefaultRules(),
	}
}

// Load reads path over the defaults. An empty path returns the defaults; a
// path that does not exist is a configuration error.
func Load(path string) (Set, error) {
	set := Defaults()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Set{}, apperr.Configf("keyword file %s not found", path)
		}
		return Set{}, apperr.Wrap(apperr.Config, err, "read keyword file")
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return Set{}, apperr.Wrap(apperr.Config, err, "parse keyword file "+path)
	}
	if err := set.Apply(f); err != nil {
		return Set{}, err
	}
	return set, nil
}

// Apply overrides the keys present in f.
func (s *Set) Apply(f File) error {
	if f.Bait != nil {
		s.Bait.Keywords = f.Bait
	}
	if f.StrongBait != nil {
		s.Bait.StrongKeywords = f.StrongBait
	}
	if f.BaitPriceRatio != nil {
		if *f.BaitPriceRatio < 0 || *f.BaitPriceRatio > 1 {
			return apperr.Configf("bait_price_ratio must be between 0 and 1")
		}
		s.Bait.PriceRatio = *f.BaitPriceRatio
	}
	if f.Banned != nil {
		s.Safety.Banned = f.Banned
	}
	if f.Excluded != nil {
		s.Safety.Excluded = f.Excluded
	}
	if f.SafeContext != nil {
		s.Safety.SafeContext = f.SafeContext
	}
	if f.GeneralSafeContext != nil {
		s.Safety.GeneralSafeContext = f.GeneralSafeContext
	}
	if f.CategoryTiers != nil {
		for cat, tier := range f.CategoryTiers {
			if !tier.Valid() {
				return apperr.Configf("category %s has unknown tier %q", cat, tier)
			}
		}
		s.Safety.CategoryTiers = f.CategoryTiers
	}
	if f.DefaultTier != nil {
		if *f.DefaultTier != "" && !f.DefaultTier.Valid() {
			return apperr.Configf("unknown default_tier %q", *f.DefaultTier)
		}
		s.Safety.DefaultTier = *f.DefaultTier
	}
	return nil
}

// File renders s in the on-disk layout.
func (s Set) File() File {
	ratio := s.Bait.PriceRatio
	tier := s.Safety.DefaultTier
	return File{
		Bait:               s.Bait.Keywords,
		StrongBait:         s.Bait.StrongKeywords,
		BaitPriceRatio:     &ratio,
		Banned:             s.Safety.Banned,
		Excluded:           s.Safety.Excluded,
		SafeContext:        s.Safety.SafeContext,
		GeneralSafeContext: s.Safety.GeneralSafeContext,
		CategoryTiers:      s.Safety.CategoryTiers,
		DefaultTier:        &tier,
	}
}

// Save writes s to path through a temp file so readers never see a partial file.
func Save(path string, s Set) error {
	data, err := json.MarshalIndent(s.File(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Store holds the active set for long-running processes and persists
// updates to its path.
type Store struct {
	mu   sync.RWMutex
	path string
	set  Set
}

func NewStore(path string) (*Store, error) {
	set, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, set: set}, nil
}

func (st *Store) Get() Set {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.set
}

// Update applies f and saves the result when the store has a path.
func (st *Store) Update(f File) (Set, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.set
	if err := next.Apply(f); err != nil {
		return Set{}, apperr.Wrap(apperr.Invalid, err, "invalid keyword update")
	}
	if st.path != "" {
		if err := Save(st.path, next); err != nil {
			return Set{}, err
		}
	}
	st.set = next
	return next, nil
}
