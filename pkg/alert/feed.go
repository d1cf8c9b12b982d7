package alert

import (
	"context"
	"errors"
)

// ErrNoData means the feed has not produced a snapshot yet.
var ErrNoData = errors.New("alert: no snapshot available")

// Feed returns the most recent snapshot.
type Feed interface {
	Current(ctx context.Context) (Snapshot, error)
}

// Static is a Feed that always returns the same snapshot.
type Static Snapshot

func (s Static) Current(context.Context) (Snapshot, error) {
	return Snapshot(s), nil
}
