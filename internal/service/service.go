package service

import (
	"context"
	"time"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/repository"
)

// Store is the storage every service works against. Gated transitions run
// inside WithinTx so their checks see the locked authoritative rows.
type Store interface {
	repository.Tx
	WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error
}

// Notifier receives a Change after a successful write so connected clients
// know to refetch.
type Notifier interface {
	Notify(change domain.Change)
}

type nopNotifier struct{}

func (nopNotifier) Notify(domain.Change) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}

	return n
}

type clock func() time.Time
