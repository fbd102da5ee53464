package db

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"time"

	// Imports postgresql driver for database/sql
	_ "github.com/lib/pq"

	"github.com/techpulse-media/contact-backend/models"
)

// SQLDatabase is a Database interface backed by postgresql.
// The schema lives in EnsureTables.
type SQLDatabase struct {
	cfg  Config  // Configuration to define the DB connection.
	conn *sql.DB // The database connection.
}

func getConnectionString(cfg Config) string {
	connectionString := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		url.PathEscape(cfg.DbUsername),
		url.PathEscape(cfg.DbPass),
		url.PathEscape(cfg.DbHost),
		url.PathEscape(cfg.DbName))
	return connectionString
}

// InitSQLDatabase creates a DB connection based on information in a Config,
// and returns a pointer to the resulting SQLDatabase object. The underlying
// sql.DB pool is established once here and reused for the process lifetime.
func InitSQLDatabase(cfg Config) (*SQLDatabase, error) {
	connectionString := getConnectionString(cfg)
	log.Printf("Connecting to Postgres DB ... \n")
	conn, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, err
	}
	return &SQLDatabase{cfg: cfg, conn: conn}, nil
}

// EnsureTables creates the tables this service expects, if they don't
// already exist.
func (db *SQLDatabase) EnsureTables() error {
	return tryExec(db, []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id SERIAL PRIMARY KEY, name TEXT, email TEXT, service TEXT,
			budget TEXT, deadline TEXT, message TEXT,
			verified BOOLEAN DEFAULT FALSE, verify_token TEXT UNIQUE,
			timestamp TIMESTAMP)`,
		`CREATE TABLE IF NOT EXISTS push_subscriptions (
			endpoint TEXT PRIMARY KEY, p256dh TEXT, auth TEXT,
			timestamp TIMESTAMP)`,
		`CREATE TABLE IF NOT EXISTS rate_limits (
			id SERIAL PRIMARY KEY, source_addr TEXT, timestamp TIMESTAMP)`,
		`CREATE TABLE IF NOT EXISTS blacklisted_contacts (
			id SERIAL PRIMARY KEY, source_addr TEXT, email TEXT,
			reason TEXT, timestamp TIMESTAMP)`,
	})
}

// SUBMISSION DB FUNCTIONS

// PutSubmission stores an accepted contact-form submission.
func (db *SQLDatabase) PutSubmission(submission models.Submission) error {
	_, err := db.conn.Exec("INSERT INTO submissions(name, email, service, budget, deadline, message, verified, verify_token, timestamp) "+
		"VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		submission.Name, submission.Email, submission.Service, submission.Budget,
		submission.Deadline, submission.Message, submission.Verified,
		submission.VerifyToken, submission.Timestamp)
	return err
}

// UseVerifyToken marks the submission holding this token as verified and
// clears the token, so a second redemption is indistinguishable from an
// unknown token. Returns the submitter's email address.
func (db *SQLDatabase) UseVerifyToken(token string) (string, error) {
	var email string
	err := db.conn.QueryRow("UPDATE submissions SET verified=TRUE, verify_token=NULL "+
		"WHERE verify_token=$1 RETURNING email", token).Scan(&email)
	return email, err
}

// SUBSCRIPTION DB FUNCTIONS

// PutSubscription stores a push subscription. Registering an endpoint
// that already exists is a no-op; the return value reports whether a new
// row was created.
func (db *SQLDatabase) PutSubscription(sub models.PushSubscription) (bool, error) {
	result, err := db.conn.Exec("INSERT INTO push_subscriptions(endpoint, p256dh, auth, timestamp) "+
		"VALUES($1, $2, $3, $4) "+
		"ON CONFLICT (endpoint) DO NOTHING",
		sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, time.Now())
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// GetSubscriptions retrieves every stored push subscription.
func (db *SQLDatabase) GetSubscriptions() ([]models.PushSubscription, error) {
	rows, err := db.conn.Query("SELECT endpoint, p256dh, auth, timestamp FROM push_subscriptions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	subs := []models.PushSubscription{}
	for rows.Next() {
		var sub models.PushSubscription
		if err := rows.Scan(&sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth, &sub.Timestamp); err != nil {
			return subs, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// RemoveSubscription deletes the subscription with the given endpoint.
func (db *SQLDatabase) RemoveSubscription(endpoint string) error {
	_, err := db.conn.Exec("DELETE FROM push_subscriptions WHERE endpoint=$1", endpoint)
	return err
}

// RATE LIMIT DB FUNCTIONS

// How long expired rate-limit rows may linger before the sweep in
// PutRateLimitRecord removes them.
const rateLimitSweepAge = time.Hour

// CountRecentSubmissions counts submissions from a source address with a
// timestamp inside the trailing window.
func (db *SQLDatabase) CountRecentSubmissions(sourceAddr string, window time.Duration) (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM rate_limits WHERE source_addr=$1 AND timestamp >= $2",
		sourceAddr, time.Now().Add(-window)).Scan(&count)
	return count, err
}

// PutRateLimitRecord counts one accepted submission toward the source's
// window. Postgres has no row TTL, so old rows are swept opportunistically
// here; the count query filters on the window regardless.
func (db *SQLDatabase) PutRateLimitRecord(sourceAddr string) error {
	if _, err := db.conn.Exec("DELETE FROM rate_limits WHERE timestamp < $1",
		time.Now().Add(-rateLimitSweepAge)); err != nil {
		return err
	}
	_, err := db.conn.Exec("INSERT INTO rate_limits(source_addr, timestamp) VALUES($1, $2)",
		sourceAddr, time.Now())
	return err
}

// BLACKLIST DB FUNCTIONS

// PutBlacklistedContact adds a contact to the blacklist.
func (db *SQLDatabase) PutBlacklistedContact(record BlacklistRecord) error {
	_, err := db.conn.Exec("INSERT INTO blacklisted_contacts(source_addr, email, reason, timestamp) "+
		"VALUES($1, $2, $3, $4)",
		record.SourceAddress, record.Email, record.Reason, record.Timestamp)
	return err
}

// IsBlacklistedContact returns true iff we've blacklisted the source
// address or the email address.
func (db *SQLDatabase) IsBlacklistedContact(sourceAddr string, email string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM blacklisted_contacts WHERE source_addr=$1 OR email=$2",
		sourceAddr, email).Scan(&count)
	return count > 0, err
}

func tryExec(database *SQLDatabase, commands []string) error {
	for _, command := range commands {
		if _, err := database.conn.Exec(command); err != nil {
			return fmt.Errorf("command failed: %s\nwith error: %v",
				command, err.Error())
		}
	}
	return nil
}

// ClearTables nukes all the tables. ** Should only be used during testing **
func (db *SQLDatabase) ClearTables() error {
	return tryExec(db, []string{
		"DELETE FROM submissions",
		"DELETE FROM push_subscriptions",
		"DELETE FROM rate_limits",
		"DELETE FROM blacklisted_contacts",
		"ALTER SEQUENCE submissions_id_seq RESTART WITH 1",
	})
}
