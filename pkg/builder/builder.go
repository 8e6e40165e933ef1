// Package builder constructs and validates workflow entities before they
// reach storage. It is the single producer of structurally valid workflows,
// whether built from scratch or stamped out of a template.
package builder

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/storewise/automation/pkg/models"
	"github.com/storewise/automation/pkg/template"
)

// Builder produces workflow entities. One instance per composition root;
// it holds the template catalog and no other state.
type Builder struct {
	templates map[string]*models.WorkflowTemplate
	logger    *slog.Logger
}

// NewBuilder creates a builder preloaded with the default template catalog.
func NewBuilder(logger *slog.Logger) *Builder {
	b := &Builder{
		templates: make(map[string]*models.WorkflowTemplate),
		logger:    logger.With("module", "builder"),
	}

	for _, tmpl := range DefaultTemplates() {
		b.templates[tmpl.ID] = tmpl
	}

	return b
}

// RegisterTemplate adds or replaces a catalog entry. Catalogs loaded from
// configuration extend the defaults; an entry reusing a default ID
// overrides it.
func (b *Builder) RegisterTemplate(tmpl *models.WorkflowTemplate) error {
	if tmpl == nil {
		return &TemplateError{Reason: "template is nil"}
	}

	if tmpl.ID == "" || tmpl.Name == "" || tmpl.Definition == nil {
		return &TemplateError{TemplateID: tmpl.ID, Reason: "template needs an id, a name, and a definition"}
	}

	b.templates[tmpl.ID] = tmpl

	return nil
}

// NewWorkflow returns a disabled, versioned workflow skeleton with a default
// data-change trigger and no actions. The skeleton is not yet valid for
// registration; the caller fills in trigger configuration and actions.
func (b *Builder) NewWorkflow(name, storeID string) *models.Workflow {
	now := time.Now().UTC()

	return &models.Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		StoreID:     storeID,
		Enabled:     false,
		Version:     1,
		Trigger: &models.Trigger{
			ID:            uuid.New().String(),
			Name:          "New trigger",
			Type:          models.TriggerTypeDataChange,
			Configuration: map[string]any{},
			Enabled:       true,
		},
		Actions:   []*models.Action{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Templates returns the catalog, for listing through the API.
func (b *Builder) Templates() []*models.WorkflowTemplate {
	templates := make([]*models.WorkflowTemplate, 0, len(b.templates))
	for _, tmpl := range b.templates {
		templates = append(templates, tmpl)
	}

	return templates
}

// Template returns one catalog entry by ID.
func (b *Builder) Template(id string) (*models.WorkflowTemplate, bool) {
	tmpl, ok := b.templates[id]

	return tmpl, ok
}

// CreateFromTemplate stamps a concrete workflow out of a template. Missing
// required variables or values violating a variable's declared type or
// options abort with a typed error; this is the one builder path that
// fails hard, because a half-substituted workflow is not a usable result.
func (b *Builder) CreateFromTemplate(templateID, storeID string, variables map[string]any) (*models.Workflow, error) {
	tmpl, ok := b.templates[templateID]
	if !ok {
		return nil, &TemplateError{TemplateID: templateID, Reason: "template not found"}
	}

	resolved, err := resolveVariables(tmpl, variables)
	if err != nil {
		return nil, err
	}

	// Substitution operates on a plain value tree, so round-trip the
	// blueprint through JSON rather than walking struct fields.
	blueprint, err := json.Marshal(tmpl.Definition)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template %s: %w", templateID, err)
	}

	var tree any
	if err := json.Unmarshal(blueprint, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", templateID, err)
	}

	substituted, err := json.Marshal(template.Substitute(tree, resolved))
	if err != nil {
		return nil, fmt.Errorf("failed to encode substituted template %s: %w", templateID, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(substituted, &workflow); err != nil {
		return nil, fmt.Errorf("failed to decode substituted template %s: %w", templateID, err)
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.StoreID = storeID
	workflow.Enabled = false
	workflow.Version = 1
	workflow.RunCount = 0
	workflow.SuccessCount = 0
	workflow.ErrorCount = 0
	workflow.LastRunAt = nil
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.Trigger != nil {
		workflow.Trigger.ID = uuid.New().String()
	}

	for _, action := range workflow.Actions {
		action.ID = uuid.New().String()
	}

	renumber(&workflow)

	b.logger.Info("Created workflow from template",
		"template_id", templateID,
		"workflow_id", workflow.ID,
		"store_id", storeID)

	return &workflow, nil
}

// AddAction appends an action to the end of the pipeline, assigning it a
// fresh identity when it has none, and renumbers the pipeline.
func (b *Builder) AddAction(workflow *models.Workflow, action *models.Action) {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}

	action.Order = len(workflow.Actions)
	workflow.Actions = append(workflow.Actions, action)
	renumber(workflow)
	touch(workflow)
}

// RemoveAction removes the action with the given ID and renumbers the
// remaining pipeline contiguously. Removing an unknown ID is a no-op.
func (b *Builder) RemoveAction(workflow *models.Workflow, actionID string) {
	kept := workflow.Actions[:0]
	removed := false

	for _, action := range workflow.Actions {
		if action.ID == actionID {
			removed = true

			continue
		}

		kept = append(kept, action)
	}

	if !removed {
		return
	}

	workflow.Actions = kept
	renumber(workflow)
	touch(workflow)
}

// MoveAction repositions the action with the given ID to position, clamped
// to the pipeline bounds, and renumbers.
func (b *Builder) MoveAction(workflow *models.Workflow, actionID string, position int) {
	sorted := workflow.SortedActions()

	index := -1

	for i, action := range sorted {
		if action.ID == actionID {
			index = i

			break
		}
	}

	if index == -1 {
		return
	}

	if position < 0 {
		position = 0
	}

	if position >= len(sorted) {
		position = len(sorted) - 1
	}

	moved := sorted[index]
	sorted = append(sorted[:index], sorted[index+1:]...)
	sorted = append(sorted[:position], append([]*models.Action{moved}, sorted[position:]...)...)

	workflow.Actions = sorted
	renumber(workflow)
	touch(workflow)
}

// renumber reassigns dense, zero-based order values following the current
// sorted order, so the pipeline invariant holds after every mutation.
func renumber(workflow *models.Workflow) {
	for i, action := range workflow.SortedActions() {
		action.Order = i
	}
}

func touch(workflow *models.Workflow) {
	workflow.UpdatedAt = time.Now().UTC()
	workflow.Version++
}
