package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrReferenceMissing = errors.New("referenced entity missing")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrReadOnly         = errors.New("global exercises are read-only")
	ErrInvalidKey       = errors.New("invalid entity key")
)

const maxEntityKeyLen = 64

type EntityType string

const (
	EntityWorkout         EntityType = "workout"
	EntityWorkoutExercise EntityType = "workout_exercise"
	EntityExerciseSet     EntityType = "exercise_set"
	EntityExercise        EntityType = "exercise"
)

type Action string

const (
	ActionCreateOrUpdate Action = "create_or_update"
	ActionDelete         Action = "delete"
	// accepted as create_or_update
	actionCreate Action = "create"
	actionUpdate Action = "update"
)

// normalized resolves the aliases; ok is false for anything unknown.
func (a Action) normalized() (Action, bool) {
	switch a {
	case ActionCreateOrUpdate, actionCreate, actionUpdate:
		return ActionCreateOrUpdate, true
	case ActionDelete:
		return ActionDelete, true
	default:
		return a, false
	}
}

type Status string

const (
	StatusSynced  Status = "synced"
	StatusDeleted Status = "deleted"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Change is one client authored mutation.
type Change struct {
	EntityType EntityType      `json:"entity_type"`
	EntityKey  string          `json:"entity_key"`
	Action     Action          `json:"action"`
	Data       json.RawMessage `json:"data"`

	// decodeErr is set when the item itself was malformed; the change then
	// fails on its own when applied.
	decodeErr error
}

// UnmarshalJSON accepts any JSON value as an item. Fields of the wrong type are
// recorded in decodeErr instead of failing the decoding of the whole batch.
func (c *Change) UnmarshalJSON(data []byte) error {
	*c = Change{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		c.decodeErr = fmt.Errorf("%w: item must be an object", ErrInvalidPayload)
		return nil
	}

	entityKey, err := stringField(fields, "entity_key")
	if err != nil {
		// best effort, so the client can still tell which item failed
		c.EntityKey = clip(string(fields["entity_key"]), maxEntityKeyLen)
		c.decodeErr = err
	} else {
		c.EntityKey = entityKey
	}

	entityType, err := stringField(fields, "entity_type")
	if err != nil && c.decodeErr == nil {
		c.decodeErr = err
	}
	c.EntityType = EntityType(entityType)

	action, err := stringField(fields, "action")
	if err != nil && c.decodeErr == nil {
		c.decodeErr = err
	}
	c.Action = Action(action)

	c.Data = fields["data"]
	return nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidPayload, name)
	}
	return value, nil
}

type PushRequest struct {
	Items []Change `json:"items"`
}

type ItemResult struct {
	EntityKey string `json:"entity_key"`
	Status    Status `json:"status"`
}

type ItemError struct {
	EntityKey string `json:"entity_key"`
	Message   string `json:"message"`
}

type OwnerSnapshot struct {
	TotalExperience int        `json:"total_experience"`
	Level           int        `json:"level"`
	LastSyncTime    *time.Time `json:"last_sync_time"`
}

type PushResult struct {
	SyncedCount    int           `json:"synced_count"`
	ErrorCount     int           `json:"error_count"`
	PerItemResults []ItemResult  `json:"per_item_results"`
	Errors         []ItemError   `json:"errors"`
	OwnerSnapshot  OwnerSnapshot `json:"owner_snapshot"`
	LeveledUp      bool          `json:"leveled_up"`
}
