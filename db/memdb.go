package db

import (
	"database/sql"
	"time"

	"github.com/techpulse-media/contact-backend/models"
)

// MemDatabase is a straw-man in-memory database (for testing!)
type MemDatabase struct {
	cfg           Config
	submissions   []models.Submission
	subscriptions map[string]models.PushSubscription
	rateLimits    []RateLimitRecord
	blacklist     []BlacklistRecord
}

// InitMemDatabase returns a fresh in-memory database.
func InitMemDatabase(cfg Config) *MemDatabase {
	return &MemDatabase{
		cfg:           cfg,
		subscriptions: make(map[string]models.PushSubscription),
	}
}

func (db *MemDatabase) PutSubmission(submission models.Submission) error {
	submission.ID = int64(len(db.submissions) + 1)
	db.submissions = append(db.submissions, submission)
	return nil
}

func (db *MemDatabase) UseVerifyToken(token string) (string, error) {
	for i := range db.submissions {
		if db.submissions[i].VerifyToken == token && token != "" {
			db.submissions[i].Verified = true
			db.submissions[i].VerifyToken = ""
			return db.submissions[i].Email, nil
		}
	}
	return "", sql.ErrNoRows
}

func (db *MemDatabase) PutSubscription(sub models.PushSubscription) (bool, error) {
	if _, ok := db.subscriptions[sub.Endpoint]; ok {
		return false, nil
	}
	sub.Timestamp = time.Now()
	db.subscriptions[sub.Endpoint] = sub
	return true, nil
}

func (db *MemDatabase) GetSubscriptions() ([]models.PushSubscription, error) {
	subs := []models.PushSubscription{}
	for _, sub := range db.subscriptions {
		subs = append(subs, sub)
	}
	return subs, nil
}

func (db *MemDatabase) RemoveSubscription(endpoint string) error {
	delete(db.subscriptions, endpoint)
	return nil
}

func (db *MemDatabase) CountRecentSubmissions(sourceAddr string, window time.Duration) (int, error) {
	cutoff := time.Now().Add(-window)
	count := 0
	for _, record := range db.rateLimits {
		if record.SourceAddress == sourceAddr && !record.Timestamp.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func (db *MemDatabase) PutRateLimitRecord(sourceAddr string) error {
	db.rateLimits = append(db.rateLimits, RateLimitRecord{
		SourceAddress: sourceAddr,
		Timestamp:     time.Now(),
	})
	return nil
}

func (db *MemDatabase) IsBlacklistedContact(sourceAddr string, email string) (bool, error) {
	for _, record := range db.blacklist {
		if record.SourceAddress == sourceAddr || record.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (db *MemDatabase) PutBlacklistedContact(record BlacklistRecord) error {
	db.blacklist = append(db.blacklist, record)
	return nil
}

func (db *MemDatabase) ClearTables() error {
	db.submissions = nil
	db.subscriptions = make(map[string]models.PushSubscription)
	db.rateLimits = nil
	db.blacklist = nil
	return nil
}

// Inspection helpers for tests.

// Submissions returns a copy of the stored submissions.
func (db *MemDatabase) Submissions() []models.Submission {
	return append([]models.Submission{}, db.submissions...)
}

// BlacklistRecords returns a copy of the stored blacklist records.
func (db *MemDatabase) BlacklistRecords() []BlacklistRecord {
	return append([]BlacklistRecord{}, db.blacklist...)
}

// RateLimitRecords returns a copy of the stored rate-limit records.
func (db *MemDatabase) RateLimitRecords() []RateLimitRecord {
	return append([]RateLimitRecord{}, db.rateLimits...)
}
