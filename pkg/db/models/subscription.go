package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription statuses the reconciliation handlers write. Stripe may send
// other values; the status column stores whatever the provider reported.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPastDue   = "past_due"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription persists one Stripe subscription. The owning customer is
// referenced by Stripe's customer id string rather than the local Customer
// primary key; incoming webhook events carry only the provider ids, so the
// provider id is the join key.
type Subscription struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	StripeCustomerID     string    `gorm:"column:stripe_customer_id;not null;index"`
	StripeSubscriptionID string    `gorm:"column:stripe_subscription_id;not null;uniqueIndex"`
	Status               string    `gorm:"column:status;not null"`
	ProductID            string    `gorm:"column:product_id"`
	PriceID              string    `gorm:"column:price_id"`
	// CreatedAt mirrors the Stripe subscription's creation timestamp.
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
