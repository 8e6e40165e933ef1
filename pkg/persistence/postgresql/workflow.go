package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/storewise/automation/pkg/models"
	"github.com/storewise/automation/pkg/persistence"
)

const workflowColumns = `id, name, store_id, trigger_config, actions, enabled, version,
	run_count, success_count, error_count, tags, last_run_at, created_at, updated_at`

// WorkflowRepository persists workflows with the trigger and action trees
// stored as JSONB.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger.With("module", "postgresql_workflow_repository"),
	}
}

// GetAll returns all workflows that are not soft deleted.
func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM automation_workflows
		WHERE deleted_at IS NULL ORDER BY created_at`, workflowColumns)

	return wr.queryWorkflows(ctx, query)
}

// GetByStore returns all live workflows belonging to a store.
func (wr *WorkflowRepository) GetByStore(ctx context.Context, storeID string) ([]*models.Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM automation_workflows
		WHERE deleted_at IS NULL AND store_id = $1 ORDER BY created_at`, workflowColumns)

	return wr.queryWorkflows(ctx, query, storeID)
}

// GetEnabled returns all live, enabled workflows.
func (wr *WorkflowRepository) GetEnabled(ctx context.Context) ([]*models.Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM automation_workflows
		WHERE deleted_at IS NULL AND enabled ORDER BY created_at`, workflowColumns)

	return wr.queryWorkflows(ctx, query)
}

// GetByID retrieves a workflow by its ID.
func (wr *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM automation_workflows
		WHERE deleted_at IS NULL AND id = $1`, workflowColumns)

	workflow, err := wr.scanWorkflow(wr.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

// Save upserts a workflow, stamping timestamps.
func (wr *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	triggerJSON, err := json.Marshal(workflow.Trigger)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	actionsJSON, err := json.Marshal(workflow.Actions)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	tagsJSON, err := json.Marshal(workflow.Tags)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	query := `
		INSERT INTO automation_workflows (
			id, name, store_id, trigger_config, actions, enabled, version,
			run_count, success_count, error_count, tags, last_run_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			store_id = EXCLUDED.store_id,
			trigger_config = EXCLUDED.trigger_config,
			actions = EXCLUDED.actions,
			enabled = EXCLUDED.enabled,
			version = EXCLUDED.version,
			run_count = EXCLUDED.run_count,
			success_count = EXCLUDED.success_count,
			error_count = EXCLUDED.error_count,
			tags = EXCLUDED.tags,
			last_run_at = EXCLUDED.last_run_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = wr.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.StoreID,
		triggerJSON,
		actionsJSON,
		workflow.Enabled,
		workflow.Version,
		workflow.RunCount,
		workflow.SuccessCount,
		workflow.ErrorCount,
		tagsJSON,
		workflow.LastRunAt,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow by setting deleted_at.
func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE automation_workflows SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	_, err := wr.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

func (wr *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := wr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}
	defer rows.Close()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := wr.scanWorkflow(rows)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", err)
	}

	return workflows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (wr *WorkflowRepository) scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow    models.Workflow
		triggerJSON []byte
		actionsJSON []byte
		tagsJSON    []byte
		lastRunAt   sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.StoreID,
		&triggerJSON,
		&actionsJSON,
		&workflow.Enabled,
		&workflow.Version,
		&workflow.RunCount,
		&workflow.SuccessCount,
		&workflow.ErrorCount,
		&tagsJSON,
		&lastRunAt,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(triggerJSON, &workflow.Trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger for workflow %s: %w", workflow.ID, err)
	}

	err = json.Unmarshal(actionsJSON, &workflow.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions for workflow %s: %w", workflow.ID, err)
	}

	err = json.Unmarshal(tagsJSON, &workflow.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags for workflow %s: %w", workflow.ID, err)
	}

	if lastRunAt.Valid {
		workflow.LastRunAt = &lastRunAt.Time
	}

	return &workflow, nil
}
