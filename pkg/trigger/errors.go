package trigger

import "errors"

var (
	// ErrNilTrigger is returned when registering a workflow without a trigger.
	ErrNilTrigger = errors.New("trigger is nil")

	// ErrMissingSchedule is returned for time_based triggers without a schedule.
	ErrMissingSchedule = errors.New("time_based trigger requires a schedule")

	// ErrMissingThresholdConfig is returned for threshold triggers missing
	// metric, operator, or a numeric value.
	ErrMissingThresholdConfig = errors.New("threshold trigger requires metric, operator, and a numeric value")

	// ErrUnknownTriggerType is returned for trigger types the manager does
	// not recognize.
	ErrUnknownTriggerType = errors.New("unknown trigger type")

	// ErrManagerStopped is returned when registering after Stop.
	ErrManagerStopped = errors.New("trigger manager is stopped")
)
