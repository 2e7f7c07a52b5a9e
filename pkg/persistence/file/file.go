// Package file provides file-based persistence used for local
// development and tests. Each entity is stored as one JSON document
// under a per-kind directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/caredesk/slaflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using
// the file system.
type Persistence struct {
	root string
}

// NewPersistence creates a file store rooted at the given directory.
// A "file://" prefix on the path is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (p *Persistence) Policies() persistence.PolicyRepository { return newPolicyRepository(p.root) }
func (p *Persistence) Timers() persistence.TimerRepository    { return newTimerRepository(p.root) }
func (p *Persistence) Breaches() persistence.BreachRepository { return newBreachRepository(p.root) }

func (p *Persistence) Escalations() persistence.EscalationRepository {
	return newEscalationRepository(p.root)
}

func (p *Persistence) Workflows() persistence.WorkflowRepository {
	return newWorkflowRepository(p.root)
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence,
// there is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// collection is the shared read/write mechanics for one entity kind.
type collection struct {
	dir string
}

func newCollection(root, kind string) collection {
	return collection{dir: filepath.Join(root, kind)}
}

func (c collection) path(id string) string {
	return filepath.Join(c.dir, id+".json")
}

func (c collection) write(id string, entity any) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.dir, err)
	}

	data, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	if err := os.WriteFile(c.path(id), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.path(id), err)
	}

	return nil
}

func (c collection) read(id string, entity any) (bool, error) {
	data, err := os.ReadFile(c.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s: %w", c.path(id), err)
	}

	if err := json.Unmarshal(data, entity); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", c.path(id), err)
	}

	return true, nil
}

func (c collection) remove(id string) (bool, error) {
	err := os.Remove(c.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to delete %s: %w", c.path(id), err)
	}

	return true, nil
}

// readAll loads every document in the collection. The decode callback
// receives the raw JSON of each file.
func (c collection) readAll(decode func(data []byte) error) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to list %s: %w", c.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}

		if err := decode(data); err != nil {
			return fmt.Errorf("failed to decode %s: %w", name, err)
		}
	}

	return nil
}
