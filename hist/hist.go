// Package hist manages named, grouped go-hep histograms and persists them
// to ROOT files.
//
// Histograms are addressed by a slash-separated path, "group/name".
// Groups must be created before histograms are booked into them.
package hist

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/hbook"
)

var (
	ErrNotFound = errors.New("hist: histogram not found")
	ErrExists   = errors.New("hist: already exists")
)

// Manager is a registry of 1D and 2D histograms.
type Manager struct {
	name   string
	groups map[string]struct{}
	h1s    map[string]*hbook.H1D
	h2s    map[string]*hbook.H2D
	order  []string
}

// New returns an empty manager.
func New(name string) *Manager {
	return &Manager{
		name:   name,
		groups: make(map[string]struct{}),
		h1s:    make(map[string]*hbook.H1D),
		h2s:    make(map[string]*hbook.H2D),
	}
}

func (m *Manager) Name() string { return m.name }

// CreateGroup declares a new group of histograms.
func (m *Manager) CreateGroup(name string) error {
	if m.HasGroup(name) {
		return fmt.Errorf("%w: group %q", ErrExists, name)
	}
	m.groups[name] = struct{}{}
	return nil
}

// HasGroup reports whether the named group exists.
func (m *Manager) HasGroup(name string) bool {
	_, ok := m.groups[name]
	return ok
}

func (m *Manager) book(path string) error {
	group, name := split(path)
	if name == "" {
		return fmt.Errorf("hist: invalid histogram path %q", path)
	}
	if group != "" && !m.HasGroup(group) {
		return fmt.Errorf("hist: no group %q for %q", group, path)
	}
	if _, dup := m.h1s[path]; dup {
		return fmt.Errorf("%w: %q", ErrExists, path)
	}
	if _, dup := m.h2s[path]; dup {
		return fmt.Errorf("%w: %q", ErrExists, path)
	}
	m.order = append(m.order, path)
	return nil
}

// CreateH1 books a 1D histogram with n bins in [lo, hi).
func (m *Manager) CreateH1(path, title string, n int, lo, hi float64) (*hbook.H1D, error) {
	err := m.book(path)
	if err != nil {
		return nil, err
	}
	h := hbook.NewH1D(n, lo, hi)
	annotate(h.Annotation(), path, title)
	m.h1s[path] = h
	return h, nil
}

// CreateH2 books a 2D histogram.
func (m *Manager) CreateH2(path, title string, nx int, xlo, xhi float64, ny int, ylo, yhi float64) (*hbook.H2D, error) {
	err := m.book(path)
	if err != nil {
		return nil, err
	}
	h := hbook.NewH2D(nx, xlo, xhi, ny, ylo, yhi)
	annotate(h.Annotation(), path, title)
	m.h2s[path] = h
	return h, nil
}

// CreateH2Edges books a 2D histogram with variable bin edges.
func (m *Manager) CreateH2Edges(path, title string, xedges, yedges []float64) (*hbook.H2D, error) {
	err := m.book(path)
	if err != nil {
		return nil, err
	}
	h := hbook.NewH2DFromEdges(xedges, yedges)
	annotate(h.Annotation(), path, title)
	m.h2s[path] = h
	return h, nil
}

func annotate(ann hbook.Annotation, path, title string) {
	_, name := split(path)
	ann["name"] = name
	ann["title"] = title
}

// H1 returns the 1D histogram booked at path.
func (m *Manager) H1(path string) (*hbook.H1D, error) {
	h, ok := m.h1s[path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return h, nil
}

// H2 returns the 2D histogram booked at path.
func (m *Manager) H2(path string) (*hbook.H2D, error) {
	h, ok := m.h2s[path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return h, nil
}

// Fill1 fills the 1D histogram at path with x and weight w.
func (m *Manager) Fill1(path string, x, w float64) error {
	h, err := m.H1(path)
	if err != nil {
		return err
	}
	h.Fill(x, w)
	return nil
}

// Fill2 fills the 2D histogram at path with (x, y) and weight w.
func (m *Manager) Fill2(path string, x, y, w float64) error {
	h, err := m.H2(path)
	if err != nil {
		return err
	}
	h.Fill(x, y, w)
	return nil
}

// Paths returns the paths of all booked histograms, in booking order.
func (m *Manager) Paths() []string {
	return append([]string(nil), m.order...)
}

// Write stores all histograms under dir, one sub-directory per group.
func (m *Manager) Write(dir riofs.Directory) error {
	groups := make([]string, 0, len(m.groups))
	for g := range m.groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	dirs := map[string]riofs.Directory{"": dir}
	for _, g := range groups {
		sub, err := dir.Mkdir(g)
		if err != nil {
			return fmt.Errorf("could not create directory %q: %w", g, err)
		}
		dirs[g] = sub
	}

	for _, path := range m.order {
		var obj root.Object
		switch {
		case m.h1s[path] != nil:
			obj = rhist.NewH1DFrom(m.h1s[path])
		default:
			obj = rhist.NewH2DFrom(m.h2s[path])
		}
		group, name := split(path)
		err := dirs[group].Put(name, obj)
		if err != nil {
			return fmt.Errorf("could not write histogram %q: %w", path, err)
		}
	}
	return nil
}

func split(path string) (group, name string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
