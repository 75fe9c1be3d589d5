package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/trackauction/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records awards in memory. Companies listed in FailCompanies
// fail to publish; those in SilentCompanies never send a receipt.
type MockPublisher struct {
	Awards          []coremqtt.Award
	FailCompanies   map[string]bool
	SilentCompanies map[string]bool
	receipts        map[string]bool
	mu              sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		FailCompanies:   make(map[string]bool),
		SilentCompanies: make(map[string]bool),
		receipts:        make(map[string]bool),
	}
}

// PublishAward records the award or returns an error if configured to fail.
func (m *MockPublisher) PublishAward(_ context.Context, a coremqtt.Award) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCompanies[a.Company] {
		return "", fmt.Errorf("publish failed")
	}
	m.Awards = append(m.Awards, a)
	id := fmt.Sprintf("msg-%s-%s", a.AuctionID, a.Company)
	m.receipts[id] = !m.SilentCompanies[a.Company]
	return id, nil
}

// WaitForReceipt answers immediately from the configured behaviour.
func (m *MockPublisher) WaitForReceipt(messageID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.receipts[messageID]
	m.mu.Unlock()
	if !exists {
		return false, coremqtt.ErrUnknownMessage
	}
	if !ok {
		return false, coremqtt.ErrReceiptTimeout
	}
	return true, nil
}

// Published returns a copy of the recorded awards.
func (m *MockPublisher) Published() []coremqtt.Award {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.Award(nil), m.Awards...)
}
