package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Submission stores a single contact-form submission.
type Submission struct {
	ID          int64     `json:"-"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Service     string    `json:"service,omitempty"`
	Budget      string    `json:"budget,omitempty"`
	Deadline    string    `json:"deadline,omitempty"`
	Message     string    `json:"message"`
	Verified    bool      `json:"verified"`
	VerifyToken string    `json:"-"` // Cleared once the submitter verifies their address.
	Timestamp   time.Time `json:"timestamp"`
}

// HasRequiredFields reports whether the submission carries everything we
// insist on before processing. Service, budget and deadline are optional.
func (s *Submission) HasRequiredFields() bool {
	return len(s.Name) > 0 && len(s.Email) > 0 && len(s.Message) > 0
}

// Number of random bytes in a verification token.
const verifyTokenBytes = 20

// GenerateVerifyToken returns a hex-encoded random token used to verify
// a submitter's email address.
func GenerateVerifyToken() (string, error) {
	b := make([]byte, verifyTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
