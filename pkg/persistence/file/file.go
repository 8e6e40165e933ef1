// Package file provides JSON file-based persistence for local development.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/storewise/automation/pkg/models"
	"github.com/storewise/automation/pkg/persistence"
)

// Persistence stores each workflow as one JSON file under root/workflows.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a file-backed store rooted at the given directory.
// A file:// prefix on the root is accepted and stripped.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Workflows returns all workflows sorted by creation time.
func (p *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loadAll()
}

// WorkflowsByStore returns the workflows belonging to one store.
func (p *Persistence) WorkflowsByStore(ctx context.Context, storeID string) ([]*models.Workflow, error) {
	all, err := p.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.StoreID == storeID {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

// EnabledWorkflows returns the workflows the engine should register at
// startup.
func (p *Persistence) EnabledWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	all, err := p.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.Enabled {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

// WorkflowByID retrieves a workflow by its ID.
func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.load(id)
}

// SaveWorkflow writes the workflow to disk, stamping timestamps.
func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.MkdirAll(p.workflowsDir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return os.WriteFile(p.workflowPath(workflow.ID), data, 0600)
}

// DeleteWorkflow removes a workflow by its ID. Deleting a missing
// workflow is not an error.
func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.workflowPath(id))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

// HealthCheck verifies the storage root is accessible.
func (p *Persistence) HealthCheck(_ context.Context) error {
	_, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("storage root inaccessible: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) workflowsDir() string {
	return path.Join(p.root, "workflows")
}

func (p *Persistence) workflowPath(id string) string {
	return filepath.Clean(path.Join(p.workflowsDir(), id+".json"))
}

func (p *Persistence) load(id string) (*models.Workflow, error) {
	body, err := os.ReadFile(p.workflowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (p *Persistence) loadAll() ([]*models.Workflow, error) {
	root := os.DirFS(p.workflowsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := file[:len(file)-5]

		workflow, err := p.load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}
