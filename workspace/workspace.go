// Package workspace describes the workspaces codexmonitor knows about and
// keeps them in a small file-backed registry.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/codexmonitor/apperr"
)

// FileName is the registry file name inside the data directory.
const FileName = "workspaces.json"

// Kind distinguishes a repository checkout from a git worktree of it.
type Kind string

const (
	KindMain     Kind = "main"
	KindWorktree Kind = "worktree"
)

// WorktreeInfo describes the git worktree behind a Worktree entry.
type WorktreeInfo struct {
	Branch string `json:"branch" yaml:"branch"`
}

// Settings are per-workspace preferences.
type Settings struct {
	SidebarCollapsed bool   `json:"sidebarCollapsed,omitempty" yaml:"sidebar_collapsed,omitempty"`
	SortOrder        *int   `json:"sortOrder,omitempty" yaml:"sort_order,omitempty"`
	Group            string `json:"groupId,omitempty" yaml:"group,omitempty"`

	// CodexArgs is stored but not consulted when resolving codex arguments;
	// app-level arguments apply to every workspace.
	CodexArgs string `json:"codexArgs,omitempty" yaml:"codex_args,omitempty"`
}

// Entry identifies a workspace.
type Entry struct {
	ID       string        `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	Path     string        `json:"path" yaml:"path"`
	Kind     Kind          `json:"kind" yaml:"kind"`
	ParentID string        `json:"parentId,omitempty" yaml:"parent_id,omitempty"`
	Worktree *WorktreeInfo `json:"worktree,omitempty" yaml:"worktree,omitempty"`
	Settings Settings      `json:"settings" yaml:"settings"`
}

// IsWorktree reports whether the entry is a worktree of another workspace.
func (e Entry) IsWorktree() bool {
	return e.Kind == KindWorktree
}

// Registry is a concurrency-safe set of workspaces.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Add validates and stores entry, assigning an ID when it has none.
// The stored entry is returned.
func (r *Registry) Add(entry Entry) (Entry, error) {
	entry.Path = strings.TrimSpace(entry.Path)
	if entry.Path == "" {
		return Entry{}, apperr.Message(apperr.KindValidation, "Workspace path is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Name == "" {
		entry.Name = filepath.Base(entry.Path)
	}
	if entry.Kind == "" {
		entry.Kind = KindMain
	}
	if entry.Kind != KindMain && entry.Kind != KindWorktree {
		return Entry{}, apperr.Newf(apperr.KindValidation, "add_workspace", "unknown workspace kind %q", entry.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.Kind == KindWorktree {
		if _, ok := r.entries[entry.ParentID]; !ok {
			return Entry{}, apperr.Newf(apperr.KindNotFound, "add_workspace", "parent workspace not found: %s", entry.ParentID)
		}
	}
	r.entries[entry.ID] = entry
	return entry, nil
}

// Get returns the workspace with the given ID.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Lookup is Get with a KindNotFound error for unknown IDs.
func (r *Registry) Lookup(id string) (Entry, error) {
	e, ok := r.Get(id)
	if !ok {
		return Entry{}, apperr.Message(apperr.KindNotFound, "workspace not found")
	}
	return e, nil
}

// Parent returns the parent of a worktree entry.
func (r *Registry) Parent(entry Entry) (Entry, bool) {
	if entry.ParentID == "" {
		return Entry{}, false
	}
	return r.Get(entry.ParentID)
}

// Remove deletes a workspace and its worktrees.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	for childID, e := range r.entries {
		if e.ParentID == id {
			delete(r.entries, childID)
		}
	}
}

// List returns all workspaces sorted by name, then ID.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Load reads a registry file. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	r := NewRegistry()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("read workspaces: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse workspaces: %w", err)
	}
	if err := r.addAll(entries); err != nil {
		return nil, err
	}
	return r, nil
}

// ImportYAML adds the workspaces listed in a YAML document.
func (r *Registry) ImportYAML(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse workspaces yaml: %w", err)
	}
	if err := r.addAll(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// addAll adds main workspaces before worktrees so parents resolve.
func (r *Registry) addAll(entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return !sorted[i].IsWorktree() && sorted[j].IsWorktree()
	})
	for i, e := range sorted {
		stored, err := r.Add(e)
		if err != nil {
			return err
		}
		sorted[i] = stored
	}
	copy(entries, sorted)
	return nil
}

// Save writes the registry to path.
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(r.List(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workspaces: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create workspaces directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write workspaces: %w", err)
	}
	return nil
}
