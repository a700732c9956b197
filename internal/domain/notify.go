package domain

import "time"

const (
	NotifyOrderCreated  = "order_created"
	NotifyStatusChanged = "status_changed"

	NotifyStatusPending = "pending"
	NotifyStatusSent    = "sent"
	NotifyStatusFailed  = "failed"
)

// NotifyLog Delivery record for customer notifications. Failed and pending rows are retried
// by the scheduler until RetryCount reaches the configured maximum.
type NotifyLog struct {
	ID         int64      `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	OrderID    int64      `json:"order_id,string" gorm:"index"`
	Kind       string     `json:"kind" gorm:"size:32;not null"`
	Recipient  string     `json:"recipient" gorm:"size:255"`
	Payload    string     `json:"payload" gorm:"type:text"` // JSON of the message data
	Status     string     `json:"status" gorm:"size:16;index;not null"`
	ErrorMsg   string     `json:"error_msg" gorm:"type:text"`
	RetryCount int        `json:"retry_count" gorm:"default:0"`
	SentAt     *time.Time `json:"sent_at"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (NotifyLog) TableName() string {
	return "notify_log"
}
