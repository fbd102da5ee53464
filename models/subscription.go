package models

import (
	"time"
)

// PushSubscription stores a browser push subscription registered by a
// client through the service worker.
type PushSubscription struct {
	Endpoint  string           `json:"endpoint"`
	Keys      SubscriptionKeys `json:"keys"`
	Timestamp time.Time        `json:"-"`
}

// SubscriptionKeys holds the client key material needed to encrypt push
// payloads for this subscription.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// HasRequiredFields reports whether the subscription can be stored and
// later used for delivery.
func (s *PushSubscription) HasRequiredFields() bool {
	return len(s.Endpoint) > 0 && len(s.Keys.P256dh) > 0 && len(s.Keys.Auth) > 0
}
