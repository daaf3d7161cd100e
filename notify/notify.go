// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"github.com/danielhkuo/lunchvote/models"
	"github.com/danielhkuo/lunchvote/ports"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	// Hostname is the public host vote links point at.
	Hostname string
	// Pace is the pause between individual open announcements.
	Pace time.Duration
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends cycle announcements as HTML mail over SMTP.
type Mailer struct {
	cfg    Config
	logger *slog.Logger
	send   SendFunc
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

var _ ports.Notifier = (*Mailer)(nil)

// NewMailer returns a Mailer using smtp.SendMail. A nil logger uses slog.Default().
func NewMailer(cfg Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &Mailer{
		cfg:    cfg,
		logger: logger,
		send:   smtp.SendMail,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// WithSender replaces the SMTP transport.
func (m *Mailer) WithSender(send SendFunc) *Mailer {
	m.send = send
	return m
}

type openMail struct {
	Date         string
	Link         string
	Deadline     string
	DeadlineText string
	Options      []string
}

type closeMail struct {
	Date       string
	Winner     string
	Attendees  []string
	TieBreaker string
}

var openTemplate = template.Must(template.New("open").Parse(`<html><body>
<h1>Lunch Today!</h1>
<p>The lunch ballot is now open for {{.Date}}.
<a style="font-weight: bold;" href="{{.Link}}">Vote Here!</a>
</p>
<p><b>Voting will be open until {{.Deadline}} today ({{.DeadlineText}}).</b></p>
<p>If you can't make it to lunch this week, ignore this email for now.</p>
<p>Today's options are:
<ul>
{{range .Options}}<li>{{.}}</li>
{{end}}</ul>
</p>
</body></html>
`))

var closeTemplate = template.Must(template.New("close").Parse(`<html><body>
{{if .Winner}}<h1>Lunch Today:<br/>{{.Winner}}</h1>{{else}}<h1>No lunch vote result</h1>{{end}}
<p>The lunch ballot is closed for {{.Date}}.</p>
<p>Who is coming today:
<ul>
{{range .Attendees}}<li>{{.}}</li>
{{end}}</ul>
</p>
{{if .TieBreaker}}<p>This week's tie-breaker was: {{.TieBreaker}}</p>
{{end}}</body></html>
`))

// AnnounceOpen mails every voter a personal vote link and the cycle's options.
// A failure for one voter does not stop the others.
func (m *Mailer) AnnounceOpen(ctx context.Context, cycle models.Cycle, voters []models.Voter, deadline time.Time) error {
	subject := strftime.Format("Lunch Vote Open %Y-%m-%d", cycle.Date)
	data := openMail{
		Date:         cycle.Date.Format(models.DateLayout),
		Deadline:     strftime.Format("%H:%M", deadline),
		DeadlineText: humanize.RelTime(deadline, m.now(), "ago", "from now"),
	}
	for _, ch := range cycle.Choices {
		data.Options = append(data.Options, ch.CandidateName)
	}

	var errs []error
	for i, v := range voters {
		if v.Email == "" {
			continue
		}
		if i > 0 && m.cfg.Pace > 0 {
			if err := m.sleep(ctx, m.cfg.Pace); err != nil {
				errs = append(errs, err)
				break
			}
		}

		data.Link = VoteLink(m.cfg.Hostname, v.Token)
		var body bytes.Buffer
		if err := openTemplate.Execute(&body, data); err != nil {
			return fmt.Errorf("render open mail: %w", err)
		}

		m.logger.Info("Emailing voter", "email", v.Email, "cycle_id", cycle.ID)
		if err := m.deliver([]string{v.Email}, subject, body.String()); err != nil {
			errs = append(errs, fmt.Errorf("mail %s: %w", v.Email, err))
		}
	}
	return errors.Join(errs...)
}

// AnnounceClose mails the result to voters who submitted ballots.
func (m *Mailer) AnnounceClose(ctx context.Context, cycle models.Cycle, winner *models.Candidate, tieBreaker *models.Voter, attendees []models.Voter) error {
	var to []string
	data := closeMail{Date: cycle.Date.Format(models.DateLayout)}
	for _, v := range attendees {
		data.Attendees = append(data.Attendees, v.Name)
		if v.Email != "" {
			to = append(to, v.Email)
		}
	}
	if len(to) == 0 {
		return nil
	}
	if winner != nil {
		data.Winner = winner.Name
	}
	if tieBreaker != nil {
		data.TieBreaker = tieBreaker.Name
	}

	var body bytes.Buffer
	if err := closeTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render close mail: %w", err)
	}

	m.logger.Info("Emailing results", "recipients", len(to), "cycle_id", cycle.ID)
	subject := strftime.Format("Lunch Vote Closed %Y-%m-%d", cycle.Date)
	return m.deliver(to, subject, body.String())
}

// VoteLink is the personal ballot link mailed to a voter.
func VoteLink(hostname, token string) string {
	u := url.URL{
		Scheme:   "http",
		Host:     hostname,
		Path:     models.VotePath,
		RawQuery: url.Values{"t": {token}}.Encode(),
	}
	return u.String()
}

func (m *Mailer) deliver(to []string, subject, html string) error {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ","))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(html)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	return m.send(addr, auth, m.cfg.From, to, msg.Bytes())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
