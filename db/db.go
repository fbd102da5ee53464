package db

import (
	"flag"
	"os"
	"time"

	"github.com/techpulse-media/contact-backend/models"
)

///////////////////////////////////////
//  *****   DATABASE SCHEMA   *****  //
///////////////////////////////////////

// Each of these mirrors a table row.

// RateLimitRecord counts one accepted submission attempt from a source
// address toward its rate-limit window. Records older than the window
// are swept by the store, never by the pipeline.
type RateLimitRecord struct {
	SourceAddress string    `json:"source_address"`
	Timestamp     time.Time `json:"timestamp"`
}

// BlacklistRecord stores a contact that has been blocked from
// submitting, and why. Append-only.
type BlacklistRecord struct {
	SourceAddress string    `json:"source_address"`
	Email         string    `json:"email"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// Reasons we write blacklist records for.
const (
	ReasonDisposableEmail = "disposable email"
	ReasonSpamContent     = "spam content detected"
)

// Database interface: These are the things that the Database should be
// able to do. Slightly more limited than CRUD for all the schemas.
type Database interface {
	// Stores an accepted contact-form submission.
	PutSubmission(models.Submission) error
	// Marks the submission holding this token as verified, clears the
	// token, and returns the submitter's email address.
	UseVerifyToken(string) (string, error)
	// Stores a push subscription. Reports whether a new row was
	// created; an existing endpoint is left alone.
	PutSubscription(models.PushSubscription) (bool, error)
	// Retrieves all push subscriptions.
	GetSubscriptions() ([]models.PushSubscription, error)
	// Removes the subscription with the given endpoint.
	RemoveSubscription(endpoint string) error
	// Counts submissions from a source address within the trailing window.
	CountRecentSubmissions(sourceAddr string, window time.Duration) (int, error)
	// Counts one accepted submission toward the source's window.
	PutRateLimitRecord(sourceAddr string) error
	// Returns true if the source address or email has been blacklisted.
	IsBlacklistedContact(sourceAddr string, email string) (bool, error)
	// Adds a contact to the blacklist.
	PutBlacklistedContact(BlacklistRecord) error
	ClearTables() error
}

// Config is a configuration struct for a Database.
type Config struct {
	Port       string
	DbHost     string
	DbName     string
	DbUsername string
	DbPass     string
}

// Default configuration values. Can be overwritten by env vars of the same name.
var configDefaults = map[string]string{
	"PORT":         "8080",
	"DB_HOST":      "localhost",
	"DB_NAME":      "contact",
	"DB_USERNAME":  "postgres",
	"DB_PASSWORD":  "postgres",
	"TEST_DB_NAME": "contact_test",
}

func getEnvOrDefault(varName string) string {
	envVar := os.Getenv(varName)
	if len(envVar) == 0 {
		envVar = configDefaults[varName]
	}
	return envVar
}

// LoadEnvironmentVariables loads relevant environment variables into a
// Config object.
func LoadEnvironmentVariables() (Config, error) {
	config := Config{
		Port:       getEnvOrDefault("PORT"),
		DbHost:     getEnvOrDefault("DB_HOST"),
		DbName:     getEnvOrDefault("DB_NAME"),
		DbUsername: getEnvOrDefault("DB_USERNAME"),
		DbPass:     getEnvOrDefault("DB_PASSWORD"),
	}
	if flag.Lookup("test.v") != nil {
		// Avoid accidentally wiping the default db during tests.
		config.DbName = getEnvOrDefault("TEST_DB_NAME")
	}
	return config, nil
}
