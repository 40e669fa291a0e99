// Package mail renders and delivers account emails: address verification and
// password reset. Delivery runs in the background; failures are logged.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
)

const (
	SubjectVerify = "Verify BJCP-Scoresheets Email Address"
	SubjectReset  = "Reset BJCP-Scoresheets Password"

	senderName  = "BJCP Scoresheets"
	sendTimeout = 30 * time.Second
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Service renders account emails and hands them to a Sender without blocking
// the caller. Close waits for pending deliveries.
type Service struct {
	sender Sender
	domain string
	logger logging.Logger
	wg     sync.WaitGroup
}

// NewService builds links against domain, e.g. "https://scoresheets.example".
func NewService(sender Sender, domain string, l logging.Logger) *Service {
	return &Service{
		sender: sender,
		domain: strings.TrimRight(domain, "/"),
		logger: l.With("module", "mail"),
	}
}

func (s *Service) SendUserVerificationEmail(ctx context.Context, recipient, code string) {
	link := fmt.Sprintf("%s/validate/?key=%s", s.domain, code)
	s.dispatch(ctx, recipient, SubjectVerify, link, content{
		Header: "Verify your Email Address",
		Body:   "Please click the button below to verify your email address.",
		Button: "Verify Email",
	}, fmt.Sprintf("Please navigate to %s to validate your email address.", link))
}

func (s *Service) SendPasswordResetEmail(ctx context.Context, recipient, code string) {
	link := fmt.Sprintf("%s/resetpassword/?key=%s", s.domain, code)
	s.dispatch(ctx, recipient, SubjectReset, link, content{
		Header: "Reset Your Password",
		Body:   "Please click the button below to reset your password. If you did not request a password reset, please disregard this email.",
		Button: "Reset Password",
	}, fmt.Sprintf("Please navigate to %s to reset your password. If you did not request a password reset, please disregard this email.", link))
}

// Close blocks until every dispatched message was handed to the sender.
func (s *Service) Close() {
	s.wg.Wait()
}

func (s *Service) dispatch(ctx context.Context, to, subject, link string, c content, text string) {
	c.Link = link
	c.Domain = s.domain
	html, err := render(c)
	if err != nil {
		s.logger.Error(ctx, "render email", "subject", subject, "error", err)
		return
	}

	msg := Message{To: to, Subject: subject, Text: text, HTML: html}

	// the request that triggered the email is usually finished by the time
	// the message goes out
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()

		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Error(ctx, "send email", "subject", subject, "error", err)
			return
		}
		s.logger.Debug(ctx, "email sent", "subject", subject)
	}()
}

type content struct {
	Domain string
	Header string
	Body   string
	Link   string
	Button string
}

var page = template.Must(template.New("email").Parse(`<body>
  <table align="center" cellpadding="0" cellspacing="0" border="0" style="width:100% !important;"><tbody>
    <tr><td>
      <div style="margin:0 auto 50px auto;width:250px;">
        <a href="{{.Domain}}"><img src="{{.Domain}}/images/app-logo.png" alt="bjcp-scoresheets logo" style="width:250px;object-fit:contain;"></a>
      </div>
    </td></tr>
    <tr><td style="font-size:27px;padding-bottom:10px;text-align:center;">{{.Header}}</td></tr>
    <tr><td style="font-size:14px;padding-bottom:20px;text-align:center;">{{.Body}}</td></tr>
    <tr><td style="font-size:14px;padding-bottom:20px;text-align:center;">
      <a href="{{.Link}}" style="text-decoration:none;display:inline-block;background:#4E9CAF;padding:10px;border-radius:5px;color:white;font-weight:bold;">{{.Button}}</a>
    </td></tr>
    <tr><td>
      <div style="font-size:10px;color:#aaa;text-align:center;margin-bottom:10px;">
        If the button does not work, copy this link into your browser: <a href="{{.Link}}">{{.Link}}</a>
      </div>
    </td></tr>
    <tr><td>
      <div style="font-size:8px;color:#888;text-align:center;">This email was automatically generated by {{.Domain}}.</div>
    </td></tr>
  </tbody></table>
</body>`))

func render(c content) (string, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}
