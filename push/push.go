// Package push delivers web-push notifications to subscribed browsers
// and prunes subscriptions the push service reports as gone.
package push

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/techpulse-media/contact-backend/models"
	"github.com/techpulse-media/contact-backend/util"
)

// ErrSubscriptionGone indicates the push service reports the endpoint as
// permanently invalid, so the subscription should be removed.
var ErrSubscriptionGone = errors.New("push subscription gone")

// Time-to-live for queued notifications, in seconds.
const notificationTTL = 60 * 60 * 24

// Sender wraps a back-end that can deliver a payload to a single push
// subscription.
type Sender interface {
	Send(*models.PushSubscription, []byte) error
}

type subscriptionStore interface {
	GetSubscriptions() ([]models.PushSubscription, error)
	RemoveSubscription(endpoint string) error
}

// Config stores the VAPID identity used to authenticate with push
// services.
type Config struct {
	publicKey  string
	privateKey string
	subscriber string // mailto: contact reported to push services.
}

// MakeConfigFromEnv initializes our push config object with environment
// variables.
func MakeConfigFromEnv() (Config, error) {
	varErrs := util.Errors{}
	c := Config{
		publicKey:  util.RequireEnv("PUBLIC_VAPID_KEY", &varErrs),
		privateKey: util.RequireEnv("PRIVATE_VAPID_KEY", &varErrs),
		subscriber: util.RequireEnv("VAPID_SUBSCRIBER", &varErrs),
	}
	if len(varErrs) > 0 {
		return c, varErrs
	}
	return c, nil
}

// PublicKey returns the VAPID public key clients subscribe with.
func (c Config) PublicKey() string {
	return c.publicKey
}

// Send delivers a payload to a single subscription. A 404 from the push
// service is treated like a 410: FCM and some other services report
// expired or invalidated subscriptions with 404, and neither status
// ever recovers, so both mean the subscription should be pruned.
func (c Config) Send(sub *models.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      c.subscriber,
		VAPIDPublicKey:  c.publicKey,
		VAPIDPrivateKey: c.privateKey,
		TTL:             notificationTTL,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrSubscriptionGone
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d for %s", resp.StatusCode, sub.Endpoint)
	}
	return nil
}

// Fanout sends a payload to every stored subscription. Subscriptions the
// push service reports gone are removed from the store; any other
// per-subscription failure is logged and skipped, so one bad endpoint
// never affects the rest.
func Fanout(sender Sender, store subscriptionStore, payload []byte) {
	subs, err := store.GetSubscriptions()
	if err != nil {
		log.Printf("Could not read push subscriptions: %v", err)
		return
	}
	for i := range subs {
		err := sender.Send(&subs[i], payload)
		if err == ErrSubscriptionGone {
			if err := store.RemoveSubscription(subs[i].Endpoint); err != nil {
				log.Printf("Could not remove gone subscription %s: %v", subs[i].Endpoint, err)
			}
			continue
		}
		if err != nil {
			log.Printf("Push to %s failed: %v", subs[i].Endpoint, err)
		}
	}
}
