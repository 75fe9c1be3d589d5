package mqtt

import (
	"context"
	"time"

	"github.com/kilianp07/trackauction/core/model"
)

// Award is the notification sent to a winning company.
type Award struct {
	AuctionID string       `json:"auction_id"`
	Company   string       `json:"company"`
	Amount    int64        `json:"amount"`
	Cells     []model.Cell `json:"cells"`
	Exact     bool         `json:"exact"`
	IssuedAt  time.Time    `json:"issued_at"`
}

// Publisher notifies winning companies of their awards and tracks the
// receipts they send back.
type Publisher interface {
	// PublishAward sends the award and returns the message identifier used
	// to match the receipt.
	PublishAward(ctx context.Context, a Award) (messageID string, err error)

	// WaitForReceipt waits for the receipt of messageID or until the
	// timeout expires.
	WaitForReceipt(messageID string, timeout time.Duration) (bool, error)
}
