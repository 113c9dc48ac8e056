package mailer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_Render(t *testing.T) {
	m := NewSMTPMailer("localhost", 2525, "", "", "Cinema <no-reply@example.com>")

	data := map[string]any{
		"BookingID":  "b-1",
		"MovieTitle": "Orbit Runners",
		"Hall":       "Hall 1",
		"StartTime":  time.Date(2026, 10, 17, 19, 30, 0, 0, time.UTC),
		"Seats":      []string{"A1", "A2"},
		"TotalPrice": "25.00",
		"Currency":   "USD",
	}

	for _, tmpl := range []string{"booking_confirmed.tmpl", "booking_cancelled.tmpl"} {
		t.Run(tmpl, func(t *testing.T) {
			msg, err := m.render("guest@example.com", tmpl, data)
			require.NoError(t, err)

			assert.Equal(t, []string{"guest@example.com"}, msg.GetHeader("To"))
			assert.True(t, strings.Contains(msg.GetHeader("Subject")[0], "Orbit Runners"))
		})
	}

	_, err := m.render("guest@example.com", "missing.tmpl", data)
	assert.Error(t, err)
}

func TestMockMailer(t *testing.T) {
	m := NewMockMailer()

	require.NoError(t, m.Send("guest@example.com", "booking_confirmed.tmpl", nil))
	require.NoError(t, m.Send("other@example.com", "booking_cancelled.tmpl", nil))

	emails := m.SentEmails()
	require.Len(t, emails, 2)
	assert.Equal(t, "guest@example.com", emails[0].Recipient)

	assert.Len(t, m.SentTo("guest@example.com", "booking_confirmed.tmpl"), 1)
	assert.Empty(t, m.SentTo("guest@example.com", "booking_cancelled.tmpl"))

	m.FailWith(errors.New("smtp down"))
	assert.Error(t, m.Send("guest@example.com", "booking_confirmed.tmpl", nil))
	assert.Len(t, m.SentEmails(), 2)
}
