package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/JockeTS/mazerunner/game/maze"
)

var (
	ErrMapNotFound = errors.New("map not found")
	ErrInvalidMap  = errors.New("invalid map")
)

// Manager handles map discovery, loading and caching
type Manager struct {
	mapDir string
	maps   map[string]*maze.RoomGraph
	logger *zap.Logger

	// names seen by the previous List
	listing []string

	mu sync.RWMutex
}

// NewManager creates a catalog over mapDir
func NewManager(mapDir string, logger *zap.Logger) (*Manager, error) {
	info, err := os.Stat(mapDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("map directory does not exist: %s", mapDir)
		}
		return nil, fmt.Errorf("failed to stat map directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("map path is not a directory: %s", mapDir)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		mapDir: mapDir,
		maps:   make(map[string]*maze.RoomGraph),
		logger: logger,
	}, nil
}

// List returns the file names of all available maps in directory order
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.mapDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read map directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := maze.FormatFor(entry.Name()); !ok {
			continue
		}
		names = append(names, entry.Name())
	}

	if m.listingChanged(names) {
		m.logger.Info("map directory changed, dropping cached maps", zap.Strings("maps", names))
		m.RefreshCache()
	}

	return names, nil
}

// listingChanged records names and reports whether they differ from a
// previous listing.
func (m *Manager) listingChanged(names []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := m.listing != nil && !slices.Equal(m.listing, names)
	m.listing = slices.Clone(names)
	return changed
}

// Load returns the graph for a map name, parsing it on first use
func (m *Manager) Load(name string) (*maze.RoomGraph, error) {
	filename := maze.NormalizeName(name)

	m.mu.RLock()
	if graph, exists := m.maps[filename]; exists {
		m.mu.RUnlock()
		return graph, nil
	}
	m.mu.RUnlock()

	// Only names the directory listing reports are loadable. This also keeps
	// "../" style names out of the filesystem.
	names, err := m.List()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, filename) {
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, filename)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if graph, exists := m.maps[filename]; exists {
		return graph, nil
	}

	data, err := os.ReadFile(filepath.Join(m.mapDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMapNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}

	format, _ := maze.FormatFor(filename)
	graph, err := maze.Parse(filename, format, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}

	if dangling := graph.DanglingEdges(); len(dangling) > 0 {
		m.logger.Warn("map has exits to unknown rooms",
			zap.String("map", filename),
			zap.Strings("edges", dangling))
	}

	m.logger.Info("loaded map",
		zap.String("map", filename),
		zap.Int("rooms", graph.Len()))

	m.maps[filename] = graph
	return graph, nil
}

// RefreshCache drops every cached graph so the next Load rereads from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maps = make(map[string]*maze.RoomGraph)
}

// Dir returns the directory backing the catalog
func (m *Manager) Dir() string {
	return m.mapDir
}
