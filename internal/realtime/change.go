package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/models/dtos"
)

// Meta is carried by every change variant.
type Meta struct {
	Table           string
	CommitTimestamp time.Time
}

// Change is one of Insert, Update or Delete. The set is closed: only this
// package can add variants.
type Change[T any] interface {
	Kind() constants.ChangeType
	sealed()
}

type Insert[T any] struct {
	Meta
	New T
}

// Update carries the previous row when the store sent one.
type Update[T any] struct {
	Meta
	New T
	Old *T
}

type Delete[T any] struct {
	Meta
	Old T
}

func (Insert[T]) Kind() constants.ChangeType { return constants.ChangeInsert }
func (Update[T]) Kind() constants.ChangeType { return constants.ChangeUpdate }
func (Delete[T]) Kind() constants.ChangeType { return constants.ChangeDelete }

func (Insert[T]) sealed() {}
func (Update[T]) sealed() {}
func (Delete[T]) sealed() {}

// Handler has one method per variant, so an implementation that forgets a
// case does not compile.
type Handler[T any] interface {
	OnInsert(Insert[T])
	OnUpdate(Update[T])
	OnDelete(Delete[T])
}

// HandlerFuncs adapts optional callbacks to Handler. Nil callbacks ignore
// their variant.
type HandlerFuncs[T any] struct {
	Insert func(Insert[T])
	Update func(Update[T])
	Delete func(Delete[T])
}

func (h HandlerFuncs[T]) OnInsert(c Insert[T]) {
	if h.Insert != nil {
		h.Insert(c)
	}
}

func (h HandlerFuncs[T]) OnUpdate(c Update[T]) {
	if h.Update != nil {
		h.Update(c)
	}
}

func (h HandlerFuncs[T]) OnDelete(c Delete[T]) {
	if h.Delete != nil {
		h.Delete(c)
	}
}

// Dispatch routes c to the matching handler method.
func Dispatch[T any](h Handler[T], c Change[T]) {
	switch v := c.(type) {
	case Insert[T]:
		h.OnInsert(v)
	case Update[T]:
		h.OnUpdate(v)
	case Delete[T]:
		h.OnDelete(v)
	}
}

var (
	ErrMissingPayload = errors.New("change has no payload")
	ErrUnknownEvent   = errors.New("change has a missing or unknown event type")
	ErrMissingRecord  = errors.New("change is missing its record")
)

// Decode turns a wire payload into a typed change.
func Decode[T any](p *dtos.ChangePayload) (Change[T], error) {
	if p == nil {
		return nil, ErrMissingPayload
	}
	meta := Meta{Table: p.Table, CommitTimestamp: p.CommitTimestamp}

	switch p.EventType {
	case constants.ChangeInsert:
		row, err := decodeRecord[T](p.New, "new")
		if err != nil {
			return nil, err
		}
		return Insert[T]{Meta: meta, New: row}, nil

	case constants.ChangeUpdate:
		row, err := decodeRecord[T](p.New, "new")
		if err != nil {
			return nil, err
		}
		u := Update[T]{Meta: meta, New: row}
		if len(p.Old) > 0 {
			old, err := decodeRecord[T](p.Old, "old")
			if err != nil {
				return nil, err
			}
			u.Old = &old
		}
		return u, nil

	case constants.ChangeDelete:
		old, err := decodeRecord[T](p.Old, "old")
		if err != nil {
			return nil, err
		}
		return Delete[T]{Meta: meta, Old: old}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, p.EventType)
	}
}

func decodeRecord[T any](raw json.RawMessage, which string) (T, error) {
	var row T
	if len(raw) == 0 || string(raw) == "null" {
		return row, fmt.Errorf("%w: %s", ErrMissingRecord, which)
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return row, fmt.Errorf("failed to decode %s record: %w", which, err)
	}
	return row, nil
}
