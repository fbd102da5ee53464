package models

import (
	"testing"
)

func TestHasRequiredFields(t *testing.T) {
	s := Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello"}
	if !s.HasRequiredFields() {
		t.Errorf("submission with name, email and message should be complete")
	}
	for _, incomplete := range []Submission{
		{Email: "alice@example.com", Message: "Hello"},
		{Name: "Alice", Message: "Hello"},
		{Name: "Alice", Email: "alice@example.com"},
	} {
		if incomplete.HasRequiredFields() {
			t.Errorf("submission %+v should be missing required fields", incomplete)
		}
	}
}

func TestSubscriptionHasRequiredFields(t *testing.T) {
	sub := PushSubscription{
		Endpoint: "https://push.example.com/abc",
		Keys:     SubscriptionKeys{P256dh: "key", Auth: "auth"},
	}
	if !sub.HasRequiredFields() {
		t.Errorf("subscription with endpoint and keys should be complete")
	}
	sub.Keys.Auth = ""
	if sub.HasRequiredFields() {
		t.Errorf("subscription without auth key should be incomplete")
	}
}

func TestGenerateVerifyToken(t *testing.T) {
	token, err := GenerateVerifyToken()
	if err != nil {
		t.Fatalf("GenerateVerifyToken failed: %v", err)
	}
	// 20 bytes, hex-encoded.
	if len(token) != 40 {
		t.Errorf("expected 40-character token, got %d", len(token))
	}
	other, err := GenerateVerifyToken()
	if err != nil {
		t.Fatalf("GenerateVerifyToken failed: %v", err)
	}
	if token == other {
		t.Errorf("two generated tokens should not collide")
	}
}
