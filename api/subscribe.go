package api

import (
	"encoding/json"
	"net/http"

	"github.com/techpulse-media/contact-backend/models"
)

// Subscribe is the handler for /api/subscribe.
//   POST /api/subscribe
//        JSON body: endpoint, keys.p256dh, keys.auth.
// Registers a browser push subscription. Registering an endpoint that
// already exists succeeds without creating a duplicate.
func (api API) subscribe(r *http.Request) response {
	if r.Method != http.MethodPost {
		return methodNotAllowed("/api/subscribe", "POST")
	}
	var subscription models.PushSubscription
	if err := json.NewDecoder(r.Body).Decode(&subscription); err != nil {
		return badRequest("Invalid request body")
	}
	if !subscription.HasRequiredFields() {
		return badRequest("Missing subscription endpoint or keys")
	}
	created, err := api.Database.PutSubscription(subscription)
	if err != nil {
		return serverError("Failed to save subscription", err)
	}
	if created {
		return response{StatusCode: http.StatusCreated, Message: "Subscribed successfully!"}
	}
	return response{StatusCode: http.StatusOK, Message: "Already subscribed"}
}
