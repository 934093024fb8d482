// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mikromail

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mikromail/mikromail/compose"
	"github.com/mikromail/mikromail/internal/address"
	"github.com/mikromail/mikromail/log"
	"github.com/mikromail/mikromail/smtp"
)

// Client drives a single send cycle against a configured SMTP server. A
// Client serves one Send call then Close; it is not reused across
// messages.
type Client struct {
	cfg    ClientConfiguration
	logger log.Logger

	conn *smtp.Client
}

// NewClient constructs a Client from a resolved configuration. Zero-valued
// fields of cfg are replaced by their defaults (see withDefaults);
// config.Load does not apply defaults itself.
func NewClient(cfg ClientConfiguration) *Client {
	cfg = cfg.withDefaults()
	c := &Client{cfg: cfg}
	if cfg.Debug {
		if cfg.LogFormat == "json" {
			c.logger = log.NewJSON(os.Stderr, log.LevelDebug)
		} else {
			c.logger = log.New(os.Stderr, log.LevelDebug)
		}
	}
	return c
}

// Send performs the full validate -> connect -> envelope -> DATA cycle,
// retrying transient failures up to cfg.MaxRetries times. It never
// returns an error; every outcome is reported through the returned
// SendResult.
func (c *Client) Send(msg MessageDescription) SendResult {
	from := msg.From
	if from == "" {
		from = c.cfg.User
	}
	if !address.Valid(from) {
		return permanentResult(ErrValidation, fmt.Sprintf("invalid from address: %q", from))
	}
	if len(msg.To) == 0 {
		return permanentResult(ErrValidation, "message has no recipients")
	}
	for _, to := range msg.To {
		if !address.Valid(to) {
			return permanentResult(ErrValidation, fmt.Sprintf("invalid to address: %q", to))
		}
	}
	if msg.Text == "" && msg.HTML == "" {
		return permanentResult(ErrValidation, "message has neither text nor html body")
	}

	validCc := filterValid(msg.Cc)
	validBcc := filterValid(msg.Bcc)
	replyTo := msg.ReplyTo
	if replyTo != "" && !address.Valid(replyTo) {
		replyTo = ""
	}

	result, err := compose.Compose(buildComposeInput(from, msg, validCc, replyTo, c.cfg.User))
	if err != nil {
		return permanentResult(ErrSize, err.Error())
	}

	rcpts := append(append(append([]string{}, msg.To...), validCc...), validBcc...)

	var lastErr *SendError
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(c.cfg.RetryDelay())
		}
		if c.conn == nil {
			if err := c.connect(); err != nil {
				lastErr = err
				if err.Permanent {
					return SendResult{Outcome: OutcomeFailure, Err: err}
				}
				continue
			}
		}

		if err := c.attempt(from, rcpts, result.Blob); err != nil {
			lastErr = err
			c.teardownAfterFailure()
			if err.Permanent {
				return SendResult{Outcome: OutcomeFailure, Err: err}
			}
			continue
		}

		return SendResult{Outcome: OutcomeSuccess, MessageID: result.MessageID, Message: result.Blob}
	}

	if lastErr == nil {
		lastErr = &SendError{Reason: ErrConnection, Permanent: false, Text: "exhausted retries"}
	}
	return SendResult{Outcome: OutcomeFailure, Err: lastErr}
}

// attempt issues MAIL/RCPT/DATA for a single connected session.
func (c *Client) attempt(from string, rcpts []string, blob []byte) *SendError {
	if err := c.conn.Mail(from); err != nil {
		return c.classifyProtocolErr(ErrProtocol, err)
	}
	for _, rcpt := range rcpts {
		if err := c.conn.Rcpt(rcpt); err != nil {
			return c.classifyProtocolErr(ErrProtocol, err)
		}
	}
	w, err := c.conn.Data()
	if err != nil {
		return c.classifyProtocolErr(ErrProtocol, err)
	}
	if _, err := w.Write(blob); err != nil {
		return c.classifyProtocolErr(ErrProtocol, err)
	}
	if err := w.Close(); err != nil {
		return c.classifyProtocolErr(ErrProtocol, err)
	}
	return nil
}

// connect establishes the transport, negotiates TLS, and authenticates.
// A connection or EHLO failure is classified the same way a mid-attempt
// failure is; a STARTTLS or authentication failure is always permanent.
func (c *Client) connect() *SendError {
	var conn *smtp.Client
	var err error
	if c.cfg.Secure {
		conn, err = smtp.ConnectTLS(c.cfg.Host, c.cfg.Port, c.cfg.Timeout(), smtp.TLSParams{})
	} else {
		conn, err = smtp.Connect(c.cfg.Host, c.cfg.Port, c.cfg.Timeout())
	}
	if err != nil {
		return c.classifyProtocolErr(ErrConnection, err)
	}
	conn.SetDebugLog(c.cfg.Debug)
	conn.SetLogger(c.logger)

	if err := conn.Hello(c.cfg.ClientName); err != nil {
		_ = conn.Close()
		return c.classifyProtocolErr(ErrProtocol, err)
	}

	if !c.cfg.Secure && conn.Capabilities().Has("STARTTLS") {
		if err := conn.StartTLS(smtp.TLSParams{ServerName: c.cfg.Host}); err != nil {
			_ = conn.Close()
			return &SendError{Reason: ErrTLS, Permanent: true, Text: err.Error()}
		}
	}

	if c.cfg.SkipAuthentication {
		if err := conn.SkipAuthentication(); err != nil {
			_ = conn.Close()
			return c.classifyProtocolErr(ErrProtocol, err)
		}
	} else if err := conn.Authenticate(c.cfg.User, c.cfg.Password); err != nil {
		_ = conn.Close()
		return &SendError{Reason: ErrAuthentication, Permanent: true, Text: err.Error()}
	}

	c.conn = conn
	return nil
}

// classifyProtocolErr wraps err as a SendError, deciding permanence with
// the shared classifier.
func (c *Client) classifyProtocolErr(reason SendErrReason, err error) *SendError {
	text := err.Error()
	permanent := classify(text)
	if reason == ErrAuthentication {
		permanent = true
	}
	return &SendError{Reason: reason, Permanent: permanent, Text: text}
}

// teardownAfterFailure best-effort RSETs, then destroys the connection so
// the next retry reconnects from scratch.
func (c *Client) teardownAfterFailure() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Reset()
	_ = c.conn.Close()
	c.conn = nil
}

// Close destroys the underlying connection, sending QUIT if one is open.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Quit()
	c.conn = nil
	return err
}

func permanentResult(reason SendErrReason, text string) SendResult {
	return SendResult{Outcome: OutcomeFailure, Err: &SendError{Reason: reason, Permanent: true, Text: text}}
}

func filterValid(addrs []string) []string {
	var out []string
	for _, a := range addrs {
		if address.Valid(a) {
			out = append(out, a)
		}
	}
	return out
}

func buildComposeInput(from string, msg MessageDescription, validCc []string, replyTo string, configUser string) compose.Input {
	headers := make([]compose.HeaderField, len(msg.Headers))
	for i, h := range msg.Headers {
		headers[i] = compose.HeaderField{Name: h.Name, Value: h.Value}
	}
	return compose.Input{
		From:    from,
		To:      msg.To,
		Cc:      validCc,
		ReplyTo: replyTo,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
		Headers: headers,
		Domain:  domainOf(configUser),
	}
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 {
		return addr[i+1:]
	}
	return ""
}
