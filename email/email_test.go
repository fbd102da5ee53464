package email

import (
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mhale/smtpd"

	"github.com/techpulse-media/contact-backend/models"
)

type mockBlacklistStore struct {
	blacklist map[string]bool
}

func (b *mockBlacklistStore) IsBlacklistedContact(sourceAddr string, email string) (bool, error) {
	return b.blacklist[email], nil
}

func newMockStore() *mockBlacklistStore {
	return &mockBlacklistStore{
		blacklist: make(map[string]bool),
	}
}

func TestVerificationEmailText(t *testing.T) {
	content := verificationEmailText("Alice", "https://fake.techpulse.website", "abcd")
	if !strings.Contains(content, "https://fake.techpulse.website/api/verify?token=abcd") {
		t.Errorf("E-mail formatted incorrectly.")
	}
}

func TestOwnerEmailText(t *testing.T) {
	submission := &models.Submission{
		Name:    "Alice",
		Email:   "alice@example.com",
		Service: "Web design",
		Message: "Hello there",
	}
	content := ownerEmailText(submission)
	for _, want := range []string{"Alice", "alice@example.com", "Web design", "Hello there"} {
		if !strings.Contains(content, want) {
			t.Errorf("owner email should contain %q", want)
		}
	}
	if !strings.Contains(content, "(not specified)") {
		t.Errorf("unset optional fields should read as unspecified")
	}
}

func TestRequireEnvConfig(t *testing.T) {
	requiredVars := map[string]string{
		"SMTP_USERNAME":         "",
		"SMTP_PASSWORD":         "",
		"SMTP_ENDPOINT":         "",
		"SMTP_PORT":             "",
		"SMTP_FROM_ADDRESS":     "",
		"CONTACT_OWNER_ADDRESS": "",
		"FRONTEND_WEBSITE_LINK": ""}
	for varName := range requiredVars {
		requiredVars[varName] = os.Getenv(varName)
		os.Setenv(varName, "")
	}
	_, err := MakeConfigFromEnv(nil)
	if err == nil {
		t.Errorf("should have received multiple errors from unset env vars")
	}
	for varName, varValue := range requiredVars {
		os.Setenv(varName, varValue)
	}
}

func TestSendEmailToBlacklistedAddressFails(t *testing.T) {
	mockStore := newMockStore()
	mockStore.blacklist["fail@example.com"] = true
	c := &Config{database: mockStore}
	err := c.sendEmail("Subject", "Body", "fail@example.com")
	if err == nil || !strings.Contains(err.Error(), "blacklisted") {
		t.Error("attempting to send mail to blacklisted address should fail")
	}
}

func TestSendEmailUnconfiguredHostLogsOnly(t *testing.T) {
	c := &Config{database: newMockStore()}
	if err := c.sendEmail("Subject", "Body", "someone@example.com"); err != nil {
		t.Errorf("unconfigured email host should log instead of failing: %v", err)
	}
}

// Runs a throwaway SMTP sink on a random port and delivers a real message
// through it.
func TestSendVerificationViaLocalSMTP(t *testing.T) {
	received := make(chan []byte, 1)
	srv := &smtpd.Server{
		Handler: func(_ net.Addr, _ string, _ []string, data []byte) {
			received <- data
		},
		Hostname: "localhost",
	}
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		if err := srv.Serve(ln); err != nil && !strings.Contains(err.Error(), "closed") {
			t.Logf("smtpd: %v", err)
		}
	}()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	c := &Config{
		submissionHostname: "localhost",
		port:               port,
		sender:             "noreply@techpulse.example",
		website:            "https://techpulse.example",
		database:           newMockStore(),
	}
	submission := &models.Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello"}
	if err := c.SendVerification(submission, "abcd"); err != nil {
		t.Fatalf("SendVerification failed: %v", err)
	}
	select {
	case data := <-received:
		if !strings.Contains(string(data), "/api/verify?token=abcd") {
			t.Errorf("delivered mail should contain the verification link:\n%s", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for SMTP delivery")
	}
}
