package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	raven "github.com/getsentry/raven-go"

	"github.com/techpulse-media/contact-backend/db"
	"github.com/techpulse-media/contact-backend/models"
	"github.com/techpulse-media/contact-backend/push"
	"github.com/techpulse-media/contact-backend/spamfilter"
)

// Per-source submission limit: at most rateLimitCeiling accepted-for-counting
// submissions within the trailing rateLimitWindow.
const (
	rateLimitWindow  = time.Hour
	rateLimitCeiling = 5
)

// Contact is the handler for /api/contact.
//   POST /api/contact
//        JSON body: name, email, message (required);
//        service, budget, deadline (optional).
// Runs the submission through the anti-abuse checks in order, first
// failure wins. On acceptance, persists the submission and then fires
// the notification side effects best-effort.
func (api API) contact(r *http.Request) response {
	if r.Method != http.MethodPost {
		return methodNotAllowed("/api/contact", "POST")
	}
	var submission models.Submission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		return badRequest("Invalid request body")
	}
	if !submission.HasRequiredFields() {
		return badRequest("Missing required fields")
	}
	sourceAddr := sourceAddress(r)

	// 1. Blacklisted contacts are turned away before anything else.
	blacklisted, err := api.Database.IsBlacklistedContact(sourceAddr, submission.Email)
	if err != nil {
		return serverError("Failed to submit form", err)
	}
	if blacklisted {
		return response{StatusCode: http.StatusForbidden, Message: "Access denied"}
	}

	// 2. Rate limit. The rejected attempt itself is not counted.
	count, err := api.Database.CountRecentSubmissions(sourceAddr, rateLimitWindow)
	if err != nil {
		return serverError("Failed to submit form", err)
	}
	if count >= rateLimitCeiling {
		return response{StatusCode: http.StatusTooManyRequests,
			Message: "Too many requests. Please try again later."}
	}

	// 3. Email syntax.
	if !spamfilter.ValidEmail(submission.Email) {
		return badRequest("Invalid email format")
	}

	// 4. Throwaway email domains get the contact blacklisted.
	if spamfilter.IsDisposable(submission.Email) {
		api.blacklistContact(sourceAddr, submission.Email, db.ReasonDisposableEmail)
		return badRequest("Disposable email addresses are not accepted")
	}

	// 5. Content heuristics.
	if spamfilter.IsSpam(submission.Message) {
		api.blacklistContact(sourceAddr, submission.Email, db.ReasonSpamContent)
		return badRequest("Message was flagged as spam")
	}

	// Accepted. This attempt counts toward the source's future windows.
	if err := api.Database.PutRateLimitRecord(sourceAddr); err != nil {
		return serverError("Failed to submit form", err)
	}
	token, err := models.GenerateVerifyToken()
	if err != nil {
		return serverError("Failed to submit form", err)
	}
	submission.Verified = false
	submission.VerifyToken = token
	submission.Timestamp = time.Now()
	if err := api.Database.PutSubmission(submission); err != nil {
		return serverError("Failed to submit form", err)
	}

	// The submission is persisted; from here on nothing is rolled back.
	// Email failures surface as an explicit partial success, push
	// failures stay out of the response entirely.
	emailOK := true
	if err := api.Emailer.SendOwnerNotification(&submission); err != nil {
		log.Printf("Could not send owner notification: %v", err)
		raven.CaptureError(err, nil)
		emailOK = false
	}
	if err := api.Emailer.SendVerification(&submission, token); err != nil {
		log.Printf("Could not send verification email to %s: %v", submission.Email, err)
		raven.CaptureError(err, nil)
		emailOK = false
	}
	api.notifySubscribers(&submission)

	if !emailOK {
		return response{
			StatusCode: http.StatusOK,
			Message:    "Your message was received, but we could not send a confirmation email. We'll be in touch shortly.",
		}
	}
	return response{
		StatusCode: http.StatusOK,
		Message:    "Contact form submitted successfully. Please check your inbox to verify your email address.",
	}
}

// Writes a blacklist record for a rejected contact. A write failure is
// logged but never masks the rejection itself.
func (api API) blacklistContact(sourceAddr string, email string, reason string) {
	err := api.Database.PutBlacklistedContact(db.BlacklistRecord{
		SourceAddress: sourceAddr,
		Email:         email,
		Reason:        reason,
		Timestamp:     time.Now(),
	})
	if err != nil {
		log.Printf("Could not write blacklist record for %s: %v", email, err)
		raven.CaptureError(err, nil)
	}
}

// Fans a new-submission notification out to every push subscriber.
func (api API) notifySubscribers(submission *models.Submission) {
	payload, err := json.Marshal(map[string]string{
		"title": "New contact form submission",
		"body":  "From " + submission.Name,
		"url":   "/",
	})
	if err != nil {
		log.Printf("Could not build push payload: %v", err)
		return
	}
	push.Fanout(api.Pusher, api.Database, payload)
}
