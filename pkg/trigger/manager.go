// Package trigger implements the stateful registration and dispatch core.
// The manager keeps one in-memory registration per enabled workflow,
// monitors the trigger's condition, and turns every satisfied condition
// into a single outbound callback. Firing is fire-and-forget: the manager
// never waits for the execution consumer.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/storewise/automation/pkg/changefeed"
	"github.com/storewise/automation/pkg/metrics"
	"github.com/storewise/automation/pkg/models"
	"github.com/storewise/automation/pkg/otelhelper"
	"github.com/storewise/automation/pkg/rules"
)

const defaultPollInterval = time.Minute

// Callback receives every trigger firing. The error return is logged,
// never propagated: dispatch is fire-and-forget from the manager's side.
type Callback func(ctx context.Context, workflowID string, payload map[string]any) error

// Manager owns the registration maps and all runtime timer handles. It is
// the only long-lived stateful component of the engine; construct one per
// composition root and inject it, never share it through a global.
type Manager struct {
	logger       *slog.Logger
	metrics      metrics.Source
	rules        *rules.Engine
	clock        clock.Clock
	pollInterval time.Duration
	tracer       trace.Tracer

	mu            sync.Mutex
	callback      Callback
	registrations map[string]*registration
	order         []string
	stopped       bool
}

// registration is the transient runtime bookkeeping for one workflow,
// derived from its trigger; it exists only to allow clean unregistration.
type registration struct {
	workflowID string
	trigger    *models.Trigger
	ticker     *clock.Ticker
	done       chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock injects the clock used for all timers; tests pass a mock for
// deterministic scheduling.
func WithClock(clk clock.Clock) Option {
	return func(m *Manager) { m.clock = clk }
}

// WithPollInterval overrides the threshold polling cadence.
func WithPollInterval(interval time.Duration) Option {
	return func(m *Manager) { m.pollInterval = interval }
}

// WithTracer enables a span around every dispatch.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

// NewManager creates a trigger manager. The metric source backs threshold
// triggers; rule evaluation uses its own engine instance.
func NewManager(logger *slog.Logger, source metrics.Source, opts ...Option) *Manager {
	m := &Manager{
		logger:        logger.With("module", "trigger_manager"),
		metrics:       source,
		rules:         rules.NewEngine(logger),
		clock:         clock.New(),
		pollInterval:  defaultPollInterval,
		registrations: make(map[string]*registration),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Initialize prepares the manager for registrations. Calling it on a
// stopped manager brings it back to a clean, empty state.
func (m *Manager) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = false
	m.logger.Info("Trigger manager initialized")
}

// OnTrigger sets the single outbound callback. Registrations that fire
// before a callback is set are logged and dropped.
func (m *Manager) OnTrigger(callback Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callback = callback
}

// RegisterTrigger registers a workflow's trigger and starts its
// type-specific runtime. The only failures are structural configuration
// problems, reported synchronously; everything after registration is
// logged, never propagated. Registering a workflow that is already
// registered replaces the previous registration.
func (m *Manager) RegisterTrigger(workflowID string, trig *models.Trigger) error {
	if trig == nil {
		return fmt.Errorf("workflow %s: %w", workflowID, ErrNilTrigger)
	}

	switch trig.Type {
	case models.TriggerTypeTimeBased:
		if trig.ConfigString("schedule") == "" {
			return fmt.Errorf("workflow %s: %w", workflowID, ErrMissingSchedule)
		}
	case models.TriggerTypeThreshold:
		if trig.ConfigString("metric") == "" || trig.ConfigString("operator") == "" {
			return fmt.Errorf("workflow %s: %w", workflowID, ErrMissingThresholdConfig)
		}

		if _, ok := trig.Configuration["value"]; !ok {
			return fmt.Errorf("workflow %s: %w", workflowID, ErrMissingThresholdConfig)
		}

		if _, ok := configNumber(trig.Configuration, "value"); !ok {
			return fmt.Errorf("workflow %s: %w", workflowID, ErrMissingThresholdConfig)
		}
	case models.TriggerTypeDataChange, models.TriggerTypeExternalEvent:
		// Matching criteria are consulted at event time; nothing to start.
	default:
		return fmt.Errorf("workflow %s: %w: %q", workflowID, ErrUnknownTriggerType, trig.Type)
	}

	reg := &registration{
		workflowID: workflowID,
		trigger:    trig,
		done:       make(chan struct{}),
	}

	var (
		interval time.Duration
		timed    bool
	)

	switch trig.Type {
	case models.TriggerTypeTimeBased:
		schedule := trig.ConfigString("schedule")

		interval, timed = ParseCronToInterval(schedule)
		if !timed {
			// Accepted but will never fire. A warning is the documented way
			// for callers to detect this.
			m.logger.Warn("Unsupported cron expression, schedule will never fire",
				"workflow_id", workflowID,
				"schedule", schedule)
		}
	case models.TriggerTypeThreshold:
		interval, timed = m.pollInterval, true
	}

	m.mu.Lock()

	if m.stopped {
		m.mu.Unlock()

		return ErrManagerStopped
	}

	// Removing any previous registration and inserting the new one happen
	// in one critical section, so concurrent registrations of the same
	// workflow cannot overwrite a live registration and strand its timer.
	// The ticker is assigned before the registration becomes visible, so
	// a concurrent Unregister or Stop always observes it and stops it.
	replaced := m.removeLocked(workflowID)

	if timed {
		reg.ticker = m.clock.Ticker(interval)
	}

	m.registrations[workflowID] = reg
	m.order = append(m.order, workflowID)
	m.mu.Unlock()

	if replaced != nil {
		m.teardown(replaced)
	}

	if reg.ticker != nil {
		switch trig.Type {
		case models.TriggerTypeTimeBased:
			go m.runSchedule(reg)
		case models.TriggerTypeThreshold:
			go m.runThresholdPoller(reg)
		}
	}

	m.logger.Info("Registered trigger",
		"workflow_id", workflowID,
		"trigger_type", trig.Type)

	return nil
}

// UnregisterTrigger stops future firings for the workflow and removes all
// bookkeeping. It is idempotent. A firing already in flight when this
// returns is not retroactively cancelled; ticks are not awaited, so the
// race is documented rather than hidden.
func (m *Manager) UnregisterTrigger(workflowID string) {
	m.mu.Lock()
	reg := m.removeLocked(workflowID)
	m.mu.Unlock()

	if reg == nil {
		return
	}

	m.teardown(reg)

	m.logger.Info("Unregistered trigger", "workflow_id", workflowID)
}

// removeLocked detaches the workflow's registration from all bookkeeping
// and returns it, or nil when none exists. The caller holds m.mu and is
// responsible for tearing the returned registration down.
func (m *Manager) removeLocked(workflowID string) *registration {
	reg, ok := m.registrations[workflowID]
	if !ok {
		return nil
	}

	delete(m.registrations, workflowID)

	for i, id := range m.order {
		if id == workflowID {
			m.order = append(m.order[:i], m.order[i+1:]...)

			break
		}
	}

	return reg
}

// teardown stops a detached registration's runtime.
func (m *Manager) teardown(reg *registration) {
	close(reg.done)

	if reg.ticker != nil {
		reg.ticker.Stop()
	}
}

// ManualTrigger fires the workflow unconditionally, bypassing all
// condition evaluation.
func (m *Manager) ManualTrigger(ctx context.Context, workflowID string, data map[string]any) {
	m.dispatch(ctx, workflowID, map[string]any{
		"trigger_type": "manual",
		"data":         data,
		"timestamp":    m.timestamp(),
	})
}

// HandleWebhook broadcasts an inbound external event to every registered
// external_event listener whose configured event type matches (or that
// configured none). A failing listener is logged and does not prevent
// delivery to the rest.
func (m *Manager) HandleWebhook(ctx context.Context, eventType string, payload map[string]any) {
	for _, reg := range m.snapshot() {
		if reg.trigger.Type != models.TriggerTypeExternalEvent {
			continue
		}

		configured := reg.trigger.ConfigString("event_type")
		if configured != "" && configured != eventType {
			continue
		}

		m.dispatch(ctx, reg.workflowID, map[string]any{
			"trigger_type": "webhook",
			"event_type":   eventType,
			"payload":      payload,
			"timestamp":    m.timestamp(),
		})
	}
}

// HandleChange checks one change-feed event against every data_change
// registration, in registration order. The feed holds one shared
// subscription per watched table; per-workflow matching happens here.
func (m *Manager) HandleChange(ctx context.Context, change changefeed.Change) {
	operation, known := models.OperationForEventType(change.EventType)
	if !known {
		m.logger.Warn("Ignoring change with unknown event type", "event_type", change.EventType)

		return
	}

	for _, reg := range m.snapshot() {
		if reg.trigger.Type != models.TriggerTypeDataChange {
			continue
		}

		if reg.trigger.ConfigString("table") != change.Table {
			continue
		}

		if configured := reg.trigger.ConfigString("operation"); configured != "" && configured != string(operation) {
			continue
		}

		if !m.changeConditionsHold(reg.trigger, change) {
			continue
		}

		m.dispatch(ctx, reg.workflowID, map[string]any{
			"event_type": change.EventType,
			"table":      change.Table,
			"new_record": change.NewRecord,
			"old_record": change.OldRecord,
			"timestamp":  m.timestamp(),
		})
	}
}

// changeConditionsHold applies field-level equality conditions and any
// embedded filters against the changed record.
func (m *Manager) changeConditionsHold(trig *models.Trigger, change changefeed.Change) bool {
	record := change.NewRecord
	if record == nil {
		record = change.OldRecord
	}

	if conditions, ok := trig.Configuration["conditions"].(map[string]any); ok {
		for field, expected := range conditions {
			filter := models.Filter{Field: field, Operator: models.OperatorEquals, Value: expected}
			if !m.rules.EvaluateFilter(filter, record) {
				return false
			}
		}
	}

	return m.rules.EvaluateFilters(triggerFilters(trig), record)
}

// Stop tears down every timer and listener and clears all registrations.
// Safe to call during shutdown and more than once; afterwards the manager
// accepts no registrations until Initialize is called again.
func (m *Manager) Stop() {
	m.mu.Lock()

	if m.stopped {
		m.mu.Unlock()

		return
	}

	m.stopped = true
	regs := make([]*registration, 0, len(m.registrations))

	for _, reg := range m.registrations {
		regs = append(regs, reg)
	}

	m.registrations = make(map[string]*registration)
	m.order = nil
	m.mu.Unlock()

	for _, reg := range regs {
		m.teardown(reg)
	}

	m.logger.Info("Trigger manager stopped", "stopped_registrations", len(regs))
}

// ActiveTimers reports how many registrations currently hold a live timer.
func (m *Manager) ActiveTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0

	for _, reg := range m.registrations {
		if reg.ticker != nil {
			count++
		}
	}

	return count
}

// Registered reports whether the workflow currently has a registration.
func (m *Manager) Registered(workflowID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.registrations[workflowID]

	return ok
}

func (m *Manager) runSchedule(reg *registration) {
	schedule := reg.trigger.ConfigString("schedule")

	timezone := reg.trigger.ConfigString("timezone")
	if timezone == "" {
		timezone = "UTC"
	}

	for {
		select {
		case <-reg.done:
			return
		case <-reg.ticker.C:
			// Every tick fires; the schedule itself is the condition.
			m.dispatch(context.Background(), reg.workflowID, map[string]any{
				"trigger_type": "scheduled",
				"schedule":     schedule,
				"timezone":     timezone,
				"timestamp":    m.timestamp(),
			})
		}
	}
}

func (m *Manager) runThresholdPoller(reg *registration) {
	metric := reg.trigger.ConfigString("metric")
	operator := reg.trigger.ConfigString("operator")
	threshold, _ := configNumber(reg.trigger.Configuration, "value")

	for {
		select {
		case <-reg.done:
			return
		case <-reg.ticker.C:
			m.pollThreshold(reg.workflowID, metric, operator, threshold)
		}
	}
}

// pollThreshold queries the metric once and fires while the comparison
// holds. This is deliberately level-triggered: the callback fires on every
// tick the condition is satisfied, not once per transition.
func (m *Manager) pollThreshold(workflowID, metric, operator string, threshold float64) {
	ctx := context.Background()

	current, err := m.metrics.Query(ctx, metric)
	if err != nil {
		m.logger.Error("Metric query failed",
			"workflow_id", workflowID,
			"metric", metric,
			"error", err)

		return
	}

	if !thresholdHolds(operator, current, threshold) {
		return
	}

	m.dispatch(ctx, workflowID, map[string]any{
		"trigger_type":    "threshold",
		"metric":          metric,
		"current_value":   current,
		"threshold_value": threshold,
		"operator":        operator,
		"timestamp":       m.timestamp(),
	})
}

func thresholdHolds(operator string, current, threshold float64) bool {
	switch operator {
	case "gt":
		return current > threshold
	case "lt":
		return current < threshold
	case "eq":
		return current == threshold
	case "gte":
		return current >= threshold
	case "lte":
		return current <= threshold
	default:
		return false
	}
}

// dispatch delivers one firing to the registered callback. Errors and
// panics are contained here: a misbehaving consumer must never take the
// manager down with it.
func (m *Manager) dispatch(ctx context.Context, workflowID string, payload map[string]any) {
	m.mu.Lock()
	callback := m.callback
	m.mu.Unlock()

	if callback == nil {
		m.logger.Warn("Trigger fired with no callback registered", "workflow_id", workflowID)

		return
	}

	if m.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, m.tracer, "trigger.dispatch",
			attribute.String(otelhelper.WorkflowIDKey, workflowID))
		defer span.End()
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Trigger callback panicked",
				"workflow_id", workflowID,
				"panic", r)
		}
	}()

	if err := callback(ctx, workflowID, payload); err != nil {
		m.logger.Error("Trigger callback failed",
			"workflow_id", workflowID,
			"error", err)
	}
}

// snapshot copies the registrations in insertion order so event handling
// iterates deterministically without holding the lock.
func (m *Manager) snapshot() []*registration {
	m.mu.Lock()
	defer m.mu.Unlock()

	regs := make([]*registration, 0, len(m.order))

	for _, id := range m.order {
		if reg, ok := m.registrations[id]; ok {
			regs = append(regs, reg)
		}
	}

	return regs
}

func (m *Manager) timestamp() string {
	return m.clock.Now().UTC().Format(time.RFC3339)
}

func configNumber(configuration map[string]any, key string) (float64, bool) {
	switch v := configuration[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		var parsed float64

		_, err := fmt.Sscanf(v, "%g", &parsed)

		return parsed, err == nil
	default:
		return 0, false
	}
}

// triggerFilters decodes the optional "filters" list from a trigger
// configuration; malformed shapes are treated as no filters.
func triggerFilters(trig *models.Trigger) []models.Filter {
	raw, ok := trig.Configuration["filters"].([]any)
	if !ok {
		return nil
	}

	filters := make([]models.Filter, 0, len(raw))

	for _, entry := range raw {
		record, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		field, _ := record["field"].(string)
		operator, _ := record["operator"].(string)

		filters = append(filters, models.Filter{
			Field:    field,
			Operator: models.FilterOperator(operator),
			Value:    record["value"],
		})
	}

	return filters
}
