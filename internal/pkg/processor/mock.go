package processor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Mock is an in-memory processor for local development and tests. Intents
// start in requires_payment_method unless AutoSettle is set, and are moved
// along with Settle.
type Mock struct {
	AutoSettle bool

	mu      sync.Mutex
	intents map[string]Intent
	byKey   map[string]string
	down    bool
	created int
}

func NewMock(autoSettle bool) *Mock {
	return &Mock{
		AutoSettle: autoSettle,
		intents:    map[string]Intent{},
		byKey:      map[string]string{},
	}
}

func (m *Mock) CreateIntent(_ context.Context, params IntentParams) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.down {
		return Intent{}, ErrUnavailable
	}
	if id, ok := m.byKey[params.IdempotencyKey]; ok && params.IdempotencyKey != "" {
		return m.intents[id], nil
	}

	id := "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       IntentRequiresPaymentMethod,
		Amount:       MinorUnits(params.Amount),
		Currency:     params.Currency,
		Metadata:     params.Metadata,
	}
	if m.AutoSettle {
		intent.Status = IntentSucceeded
		intent.TransactionID = "txn_" + id
	}

	m.intents[id] = intent
	m.byKey[params.IdempotencyKey] = id
	m.created++

	return intent, nil
}

func (m *Mock) RetrieveIntent(_ context.Context, id string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.down {
		return Intent{}, ErrUnavailable
	}
	intent, ok := m.intents[id]
	if !ok {
		return Intent{}, fmt.Errorf("%w: %s", ErrIntentNotFound, id)
	}

	return intent, nil
}

// Settle moves an intent to status, as the payer's confirmation would.
func (m *Mock) Settle(id string, status IntentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	intent, ok := m.intents[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrIntentNotFound, id)
	}
	intent.Status = status
	if status == IntentSucceeded {
		intent.TransactionID = "txn_" + id
	}
	m.intents[id] = intent

	return nil
}

// SetDown makes every call fail with ErrUnavailable.
func (m *Mock) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.down = down
}

// Created returns how many distinct intents were created.
func (m *Mock) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.created
}
