package api

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	raven "github.com/getsentry/raven-go"

	"github.com/techpulse-media/contact-backend/db"
	"github.com/techpulse-media/contact-backend/models"
)

////////////////////////////////
//  *****   REST API   *****  //
////////////////////////////////

// API is the HTTP API that this service provides.
// All requests respond with a JSON body of the form
// {
//     message // Human-readable outcome of the request.
//     error   // Raw error detail; only attached outside production mode.
// }
// except for the plain-text VAPID key endpoint and the verification
// redirects.
type API struct {
	Database db.Database
	Emailer  EmailSender
	Pusher   PushSender
	// Debug attaches raw error detail to responses and enables the
	// environment debugging endpoint. Never set in production.
	Debug bool
}

// EmailSender interface wraps a back-end that can send e-mails.
type EmailSender interface {
	// SendOwnerNotification summarizes a submission for the site owner.
	SendOwnerNotification(*models.Submission) error
	// SendVerification sends a verification e-mail to the submitter,
	// with a particular verification token.
	SendVerification(*models.Submission, string) error
}

// PushSender interface wraps a back-end that can deliver web-push
// notifications. It satisfies push.Sender.
type PushSender interface {
	Send(*models.PushSubscription, []byte) error
	PublicKey() string
}

type response struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
	redirect   string
}

type apiHandler func(r *http.Request) response

func (api *API) wrapper(handler apiHandler) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		response := handler(r)
		if response.StatusCode == http.StatusInternalServerError {
			packet := raven.NewPacket(response.Error, raven.NewHttp(r))
			raven.Capture(packet, nil)
		}
		if response.redirect != "" {
			http.Redirect(w, r, response.redirect, http.StatusFound)
			return
		}
		api.writeJSON(w, response)
	}
}

func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

// RegisterHandlers binds API functions to the given http mux.
func (api *API) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/contact", api.wrapper(api.contact))
	mux.HandleFunc("/api/verify", api.wrapper(api.verify))
	mux.HandleFunc("/api/subscribe", api.wrapper(api.subscribe))
	mux.HandleFunc("/api/vapid-public-key", api.vapidPublicKeyHandler)
	mux.HandleFunc("/api/debug-env", api.debugEnvHandler)
	mux.HandleFunc("/api/ping", pingHandler)
}

// Returns the configured public push key as plain text, for use by the
// service worker when subscribing.
func (api *API) vapidPublicKeyHandler(w http.ResponseWriter, r *http.Request) {
	key := api.Pusher.PublicKey()
	if key == "" {
		http.Error(w, "VAPID public key is not configured", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, key)
}

// Names of the environment variables the debug endpoint reports on.
var debugEnvVars = []string{
	"DB_HOST",
	"DB_NAME",
	"DB_USERNAME",
	"SMTP_ENDPOINT",
	"SMTP_FROM_ADDRESS",
	"SMTP_USERNAME",
	"CONTACT_OWNER_ADDRESS",
	"FRONTEND_WEBSITE_LINK",
	"PUBLIC_VAPID_KEY",
	"PRIVATE_VAPID_KEY",
	"VAPID_SUBSCRIBER",
}

// Reports which configuration variables are set, never their values.
// Disabled entirely outside debug mode.
func (api *API) debugEnvHandler(w http.ResponseWriter, r *http.Request) {
	if !api.Debug {
		http.NotFound(w, r)
		return
	}
	vars := map[string]string{}
	for _, varName := range debugEnvVars {
		if len(os.Getenv(varName)) > 0 {
			vars[varName] = "Set"
		} else {
			vars[varName] = "Not set"
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(vars)
}

// Writes the response as a JSON object to w. Raw error detail is
// stripped outside debug mode.
func (api *API) writeJSON(w http.ResponseWriter, apiResponse response) {
	if !api.Debug {
		apiResponse.Error = ""
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiResponse.StatusCode)
	b, err := json.MarshalIndent(apiResponse, "", "  ")
	if err != nil {
		msg := fmt.Sprintf("Internal error: could not format JSON. (%s)\n", err)
		http.Error(w, msg, http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "%s\n", b)
}

func badRequest(format string, a ...interface{}) response {
	return response{
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(format, a...),
	}
}

// Pairs a fixed user-facing message with the raw error, which only
// reaches the caller in debug mode.
func serverError(message string, err error) response {
	return response{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Error:      err.Error(),
	}
}

func methodNotAllowed(path string, method string) response {
	return response{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    fmt.Sprintf("%s only accepts %s requests", path, method),
	}
}

// Extracts the client's source address from the request, preferring the
// forwarded header set by the proxy in front of us.
func sourceAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
