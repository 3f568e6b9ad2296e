package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerification(t *testing.T) {
	r := Renderer{VerifyBaseURL: "https://app.example.com", AdminEmail: "admin@example.com"}

	msg, err := r.Render(Job{
		Kind:      JobVerification,
		Email:     "jane@example.com",
		Name:      "Jane Doe",
		Token:     "tok-abc",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Contains(t, msg.Body, "https://app.example.com/verify-email?token=tok-abc")
	assert.Contains(t, msg.Body, "24 hours")
	assert.Contains(t, msg.Body, "Jane Doe")
}

func TestRenderWelcome(t *testing.T) {
	r := Renderer{}
	msg, err := r.Render(Job{Kind: JobWelcome, Email: "jane@example.com", Name: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Contains(t, msg.Body, "Jane Doe")
	assert.Contains(t, msg.Subject, "Welcome")
}

func TestRenderAdminNotice(t *testing.T) {
	r := Renderer{AdminEmail: "admin@example.com"}
	recordID := uuid.New()

	msg, err := r.Render(Job{Kind: JobAdminNotice, Email: "jane@example.com", Name: "Jane Doe", RecordID: recordID})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", msg.To, "admin notices go to the admin, not the registrant")
	assert.Contains(t, msg.Body, "jane@example.com")
	assert.Contains(t, msg.Body, recordID.String())
}

func TestRenderUnknownKind(t *testing.T) {
	_, err := Renderer{}.Render(Job{Kind: JobKind("bogus")})
	require.Error(t, err)
}
