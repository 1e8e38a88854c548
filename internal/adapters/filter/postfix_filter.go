package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/url-guard/internal/config"
	"github.com/mikey/url-guard/internal/core"
	"github.com/mikey/url-guard/internal/ports"
	"github.com/mikey/url-guard/internal/utils"
	"go.uber.org/zap"
)

const (
	errorHeader = "X-URL-Guard-Error"
	// maxBodySize bounds the text scanned for links
	maxBodySize = 1 << 20
)

// LinkReport summarizes the links found in one message
type LinkReport struct {
	URLs    []string
	Results []core.BatchResult
	// Worst is the most severe verdict: the highest scoring malicious one,
	// else the highest scoring benign one. Nil when nothing was classified.
	Worst  *core.Verdict
	Errors int
}

// PostfixFilter implements a Postfix content filter that classifies the links in each message
type PostfixFilter struct {
	service        ports.Classifier
	logger         *zap.Logger
	textProcessor  *utils.TextProcessor
	listenAddr     string
	server         *smtp.Server
	blockMalicious bool
	headers        config.HeadersConfig
	postfix        config.PostfixConfig
	maxURLs        int
	readTimeout    time.Duration
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service ports.Classifier,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	cfg config.ServerConfig,
) *PostfixFilter {
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}

	return &PostfixFilter{
		service:        service,
		logger:         logger,
		textProcessor:  textProcessor,
		listenAddr:     cfg.ListenAddress,
		blockMalicious: cfg.BlockMalicious,
		headers:        cfg.Headers,
		postfix:        cfg.Postfix,
		maxURLs:        cfg.MaxURLs,
		readTimeout:    readTimeout,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessURL classifies a single URL
func (f *PostfixFilter) ProcessURL(ctx context.Context, url string) (*core.Verdict, error) {
	return f.service.Classify(ctx, url)
}

// Inspect extracts the links of a raw message and classifies them
func (f *PostfixFilter) Inspect(ctx context.Context, raw []byte) (*LinkReport, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	text, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}
	text = f.textProcessor.ProcessText(text, maxBodySize)

	report := &LinkReport{URLs: f.textProcessor.ExtractURLs(text, f.maxURLs)}
	if len(report.URLs) == 0 {
		return report, nil
	}

	report.Results = f.service.ClassifyAll(ctx, report.URLs)
	for _, r := range report.Results {
		if r.Err != nil {
			report.Errors++
			continue
		}
		if worse(r.Verdict, report.Worst) {
			report.Worst = r.Verdict
		}
	}

	return report, nil
}

func worse(v, than *core.Verdict) bool {
	if than == nil {
		return true
	}
	if v.IsMalicious() != than.IsMalicious() {
		return v.IsMalicious()
	}
	return v.ScoreValue() > than.ScoreValue()
}

// annotate prepends the verdict headers to the unmodified raw message
func (f *PostfixFilter) annotate(raw []byte, report *LinkReport) []byte {
	var out bytes.Buffer

	status := "none"
	if report.Worst != nil {
		status = string(report.Worst.Label)
		fmt.Fprintf(&out, "%s: %s\r\n", f.headers.Status, status)
		fmt.Fprintf(&out, "%s: %.4f\r\n", f.headers.Score, report.Worst.ScoreValue())
		fmt.Fprintf(&out, "%s: %s %s\r\n", f.headers.Reason, report.Worst.Reason, report.Worst.Domain)
	} else {
		fmt.Fprintf(&out, "%s: %s\r\n", f.headers.Status, status)
	}

	if report.Errors > 0 {
		fmt.Fprintf(&out, "%s: %d of %d links could not be classified\r\n",
			errorHeader, report.Errors, len(report.URLs))
	}

	out.Write(raw)
	return out.Bytes()
}

// sendToPostfix sends the processed email back to Postfix on the configured port using go-smtp
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.postfix.Address, fmt.Sprint(f.postfix.Port))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message is already accepted at this point
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the links of the message, then rejects or relays it
func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter

	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.readTimeout)
	defer cancel()

	report, err := f.Inspect(ctx, raw)
	if err != nil {
		f.logger.Error("Failed to inspect message", zap.Error(err), zap.String("from", s.sender))
		return err
	}

	if report.Worst != nil && report.Worst.IsMalicious() && f.blockMalicious {
		f.logger.Info("Rejecting message with malicious link",
			zap.String("from", s.sender),
			zap.String("domain", report.Worst.Domain),
			zap.Float64("score", report.Worst.ScoreValue()),
			zap.String("reason", string(report.Worst.Reason)))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected: malicious link to %s", report.Worst.Domain),
		}
	}

	annotated := f.annotate(raw, report)

	if f.postfix.Enabled {
		if err := f.sendToPostfix(s.sender, s.recipients, annotated); err != nil {
			f.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("from", s.sender))
			return err
		}
	} else {
		f.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	f.logger.Info("Processed email",
		zap.String("from", s.sender),
		zap.Int("links", len(report.URLs)),
		zap.Int("errors", report.Errors),
		zap.String("worst", worstLabel(report)))

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}

func worstLabel(report *LinkReport) string {
	if report.Worst == nil {
		return "none"
	}
	return string(report.Worst.Label)
}
