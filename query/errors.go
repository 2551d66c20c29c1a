package query

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDataUnavailable is returned when a source cannot be reached or fails while loading.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrEmptySet is returned by Max and Average over zero elements.
	ErrEmptySet = errors.New("empty set")
	// ErrInvalidRelation marks a foreign key that references no outer row.
	ErrInvalidRelation = errors.New("invalid relation")
)

// SourceError wraps a failure of the underlying data source.
// It matches ErrDataUnavailable and keeps the original cause reachable.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDataUnavailable, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrDataUnavailable }

// Unavailable wraps err as a SourceError unless it already is one.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDataUnavailable) {
		return err
	}
	return &SourceError{Err: err}
}

// RelationError reports an inner row whose key matched no outer row.
type RelationError struct {
	Key any
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("%s: no outer row for key %v", ErrInvalidRelation, e.Key)
}

func (e *RelationError) Is(target error) bool { return target == ErrInvalidRelation }
