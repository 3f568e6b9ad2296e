package notify

import (
	"fmt"
	"time"
)

// Renderer turns jobs into plain-text messages. Kept free of HTML templating
// on purpose; clients render their own chrome.
type Renderer struct {
	// VerifyBaseURL is the frontend base URL the verification link points at.
	VerifyBaseURL string

	// AdminEmail receives registration notices.
	AdminEmail string
}

func (r Renderer) Render(job Job) (Message, error) {
	switch job.Kind {
	case JobVerification:
		return r.verification(job), nil
	case JobWelcome:
		return r.welcome(job), nil
	case JobAdminNotice:
		return r.adminNotice(job), nil
	default:
		return Message{}, fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func (r Renderer) verification(job Job) Message {
	link := fmt.Sprintf("%s/verify-email?token=%s", r.VerifyBaseURL, job.Token)
	hours := int(time.Until(job.ExpiresAt).Round(time.Hour).Hours())
	if hours < 1 {
		hours = 24
	}
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Thank you for registering with HealthFirst. Please verify your email address by visiting the link below:\n\n"+
			"%s\n\n"+
			"This link expires in %d hours. If you did not create this account, you can ignore this email.\n\n"+
			"The HealthFirst Team\n",
		job.Name, link, hours)
	return Message{
		To:      job.Email,
		Subject: "Verify your HealthFirst email address",
		Body:    body,
	}
}

func (r Renderer) welcome(job Job) Message {
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your email address has been verified. Welcome to HealthFirst!\n\n"+
			"Your account is now awaiting review; we will let you know once it is approved.\n\n"+
			"The HealthFirst Team\n",
		job.Name)
	return Message{
		To:      job.Email,
		Subject: "Welcome to HealthFirst",
		Body:    body,
	}
}

func (r Renderer) adminNotice(job Job) Message {
	body := fmt.Sprintf(
		"A new registration is awaiting review.\n\n"+
			"Name:  %s\nEmail: %s\nID:    %s\n",
		job.Name, job.Email, job.RecordID)
	return Message{
		To:      r.AdminEmail,
		Subject: "New HealthFirst registration pending review",
		Body:    body,
	}
}
