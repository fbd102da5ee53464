package email

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/techpulse-media/contact-backend/db"
	"github.com/techpulse-media/contact-backend/models"
	"github.com/techpulse-media/contact-backend/util"
)

type blacklistStore interface {
	IsBlacklistedContact(sourceAddr string, email string) (bool, error)
}

// Config stores variables needed to submit emails for sending, as well
// as to generate the template text.
type Config struct {
	auth               smtp.Auth
	username           string
	password           string
	submissionHostname string
	port               string
	sender             string
	owner              string // Where owner notifications go.
	website            string // Needed to generate verification links.
	database           blacklistStore
}

// MakeConfigFromEnv initializes our email config object with
// environment variables.
func MakeConfigFromEnv(database db.Database) (Config, error) {
	// create config
	varErrs := util.Errors{}
	c := Config{
		username:           util.RequireEnv("SMTP_USERNAME", &varErrs),
		password:           util.RequireEnv("SMTP_PASSWORD", &varErrs),
		submissionHostname: util.RequireEnv("SMTP_ENDPOINT", &varErrs),
		port:               util.RequireEnv("SMTP_PORT", &varErrs),
		sender:             util.RequireEnv("SMTP_FROM_ADDRESS", &varErrs),
		owner:              util.RequireEnv("CONTACT_OWNER_ADDRESS", &varErrs),
		website:            util.RequireEnv("FRONTEND_WEBSITE_LINK", &varErrs),
		database:           database,
	}
	if len(varErrs) > 0 {
		return c, varErrs
	}
	log.Printf("Establishing auth connection with SMTP server %s", c.submissionHostname)
	// create auth
	client, err := smtp.Dial(fmt.Sprintf("%s:%s", c.submissionHostname, c.port))
	if err != nil {
		return c, err
	}
	defer client.Close()
	err = client.StartTLS(&tls.Config{ServerName: c.submissionHostname})
	if err != nil {
		return c, fmt.Errorf("SMTP server doesn't support STARTTLS")
	}
	ok, auths := client.Extension("AUTH")
	if !ok {
		return c, fmt.Errorf("remote SMTP server doesn't support any authentication mechanisms")
	}
	if strings.Contains(auths, "PLAIN") {
		c.auth = smtp.PlainAuth("", c.username, c.password, c.submissionHostname)
	} else if strings.Contains(auths, "CRAM-MD5") {
		c.auth = smtp.CRAMMD5Auth(c.username, c.password)
	} else {
		return c, fmt.Errorf("SMTP server doesn't support PLAIN or CRAM-MD5 authentication")
	}
	return c, nil
}

func verificationEmailText(name string, website string, token string) string {
	return fmt.Sprintf(verificationEmailTemplate, name, website, token)
}

func ownerEmailText(s *models.Submission) string {
	return fmt.Sprintf(ownerEmailTemplate,
		s.Name, s.Email, orNone(s.Service), orNone(s.Budget), orNone(s.Deadline), s.Message)
}

func orNone(value string) string {
	if value == "" {
		return "(not specified)"
	}
	return value
}

// SendVerification sends a verification email to the submitter, with a
// link embedding the token.
func (c Config) SendVerification(submission *models.Submission, token string) error {
	emailContent := verificationEmailText(submission.Name, c.website, token)
	return c.sendEmail(verificationEmailSubject, emailContent, submission.Email)
}

// SendOwnerNotification sends a summary of the submission to the site
// owner.
func (c Config) SendOwnerNotification(submission *models.Submission) error {
	return c.sendEmail(ownerEmailSubject, ownerEmailText(submission), c.owner)
}

func (c Config) sendEmail(subject string, body string, address string) error {
	if c.database != nil {
		blacklisted, err := c.database.IsBlacklistedContact("", address)
		if err != nil {
			return err
		}
		if blacklisted {
			return fmt.Errorf("address %s is blacklisted", address)
		}
	}
	message := fmt.Sprintf("From: %s\nTo: %s\nSubject: %s\n\n%s",
		c.sender, address, subject, body)
	if c.submissionHostname == "" {
		log.Println("Warning: email host not configured, not sending email")
		log.Println(message)
		return nil
	}
	return smtp.SendMail(fmt.Sprintf("%s:%s", c.submissionHostname, c.port),
		c.auth,
		c.sender, []string{address}, []byte(message))
}
