// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/lunchvote/models"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

type recorder struct {
	sent []sentMail
	fail map[string]bool
}

func (r *recorder) send(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	r.sent = append(r.sent, sentMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
	if r.fail[to[0]] {
		return errors.New("mailbox unavailable")
	}
	return nil
}

func testCycle() models.Cycle {
	names := []string{"Pizza", "Sandwiches", "Chinese", "Mexican", "Chicken"}
	c := models.Cycle{ID: "c1", Date: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC), Status: models.StatusOpen}
	for i, n := range names {
		c.Choices = append(c.Choices, models.Choice{Ordinal: i, CandidateName: n})
	}
	return c
}

func newTestMailer(r *recorder, now time.Time) *Mailer {
	m := NewMailer(Config{Host: "mail.test", Port: 587, User: "lunch@test.com", Hostname: "lunch.test"}, nil).WithSender(r.send)
	m.now = func() time.Time { return now }
	return m
}

func TestAnnounceOpen(t *testing.T) {
	r := &recorder{}
	now := time.Date(2025, 3, 6, 9, 30, 0, 0, time.UTC)
	m := newTestMailer(r, now)

	voters := []models.Voter{
		{Name: "Joe Test", Email: "jtest@test.com", Token: "tok-joe"},
		{Name: "Nobody"},
		{Name: "Bob Test", Email: "atest@test.com", Token: "tok-bob"},
	}
	err := m.AnnounceOpen(context.Background(), testCycle(), voters, now.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, r.sent, 2)

	first := r.sent[0]
	assert.Equal(t, "mail.test:587", first.addr)
	assert.NotNil(t, first.auth)
	assert.Equal(t, "lunch@test.com", first.from)
	assert.Equal(t, []string{"jtest@test.com"}, first.to)
	assert.Contains(t, first.msg, "Subject: Lunch Vote Open 2025-03-06\r\n")
	assert.Contains(t, first.msg, "http://lunch.test/vote?t=tok-joe")
	assert.Contains(t, first.msg, "until 11:00 today")
	assert.Contains(t, first.msg, "from now")
	for _, name := range []string{"Pizza", "Sandwiches", "Chinese", "Mexican", "Chicken"} {
		assert.Contains(t, first.msg, "<li>"+name+"</li>")
	}

	assert.Contains(t, r.sent[1].msg, "t=tok-bob")
	assert.NotContains(t, r.sent[1].msg, "tok-joe")
}

func TestAnnounceOpenContinuesAfterFailure(t *testing.T) {
	r := &recorder{fail: map[string]bool{"a@test.com": true}}
	m := newTestMailer(r, time.Now())

	voters := []models.Voter{
		{Name: "A", Email: "a@test.com", Token: "a"},
		{Name: "B", Email: "b@test.com", Token: "b"},
	}
	err := m.AnnounceOpen(context.Background(), testCycle(), voters, time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a@test.com")
	assert.Len(t, r.sent, 2)
}

func TestAnnounceOpenPaces(t *testing.T) {
	r := &recorder{}
	m := newTestMailer(r, time.Now())
	m.cfg.Pace = 15 * time.Second

	var slept []time.Duration
	m.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	voters := []models.Voter{
		{Name: "A", Email: "a@test.com"},
		{Name: "B", Email: "b@test.com"},
		{Name: "C", Email: "c@test.com"},
	}
	require.NoError(t, m.AnnounceOpen(context.Background(), testCycle(), voters, time.Now()))
	assert.Equal(t, []time.Duration{15 * time.Second, 15 * time.Second}, slept)
}

func TestAnnounceOpenStopsOnCancel(t *testing.T) {
	r := &recorder{}
	m := newTestMailer(r, time.Now())
	m.cfg.Pace = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	voters := []models.Voter{
		{Name: "A", Email: "a@test.com"},
		{Name: "B", Email: "b@test.com"},
	}
	err := m.AnnounceOpen(ctx, testCycle(), voters, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, r.sent, 1)
}

func TestAnnounceClose(t *testing.T) {
	r := &recorder{}
	m := newTestMailer(r, time.Now())

	winner := &models.Candidate{Name: "Chinese"}
	tb := &models.Voter{Name: "Bob Test"}
	attendees := []models.Voter{
		{Name: "Joe Test", Email: "jtest@test.com"},
		{Name: "Bob Test", Email: "atest@test.com"},
	}
	require.NoError(t, m.AnnounceClose(context.Background(), testCycle(), winner, tb, attendees))
	require.Len(t, r.sent, 1)

	mail := r.sent[0]
	assert.Equal(t, []string{"jtest@test.com", "atest@test.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: Lunch Vote Closed 2025-03-06\r\n")
	assert.Contains(t, mail.msg, "To: jtest@test.com,atest@test.com\r\n")
	assert.Contains(t, mail.msg, "Lunch Today:<br/>Chinese")
	assert.Contains(t, mail.msg, "<li>Joe Test</li>")
	assert.Contains(t, mail.msg, "tie-breaker was: Bob Test")
}

func TestAnnounceCloseWithoutAttendeesSendsNothing(t *testing.T) {
	r := &recorder{}
	m := newTestMailer(r, time.Now())

	require.NoError(t, m.AnnounceClose(context.Background(), testCycle(), nil, nil, nil))
	assert.Empty(t, r.sent)
}

func TestAnnounceCloseWithoutTieBreaker(t *testing.T) {
	r := &recorder{}
	m := newTestMailer(r, time.Now())

	attendees := []models.Voter{{Name: "Joe Test", Email: "jtest@test.com"}}
	require.NoError(t, m.AnnounceClose(context.Background(), testCycle(), &models.Candidate{Name: "Pizza"}, nil, attendees))
	require.Len(t, r.sent, 1)
	assert.False(t, strings.Contains(r.sent[0].msg, "tie-breaker"))
}

func TestMailerWithoutUserSkipsAuth(t *testing.T) {
	r := &recorder{}
	m := NewMailer(Config{Host: "localhost", Port: 25, From: "lunch@localhost"}, nil).WithSender(r.send)

	attendees := []models.Voter{{Name: "Joe", Email: "joe@test.com"}}
	require.NoError(t, m.AnnounceClose(context.Background(), testCycle(), nil, nil, attendees))
	require.Len(t, r.sent, 1)
	assert.Nil(t, r.sent[0].auth)
	assert.Equal(t, "localhost:25", r.sent[0].addr)
}

func TestLogNotifier(t *testing.T) {
	n := LogNotifier{}
	assert.NoError(t, n.AnnounceOpen(context.Background(), testCycle(), nil, time.Now()))
	assert.NoError(t, n.AnnounceClose(context.Background(), testCycle(), &models.Candidate{Name: "Pizza"}, &models.Voter{Name: "Joe"}, nil))
}
