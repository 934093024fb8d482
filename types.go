// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package mikromail implements an outbound SMTP mail submission client:
// connection setup, opportunistic TLS, authentication selection, MIME
// composition, and a retry policy that distinguishes permanent from
// transient failures. It is not dependency-free: the smtp package uses
// golang.org/x/text for credential normalization, and internal/mxcheck
// uses github.com/miekg/dns.
package mikromail

import (
	"os"
	"time"
)

// ClientConfiguration is immutable once passed to NewClient.
type ClientConfiguration struct {
	Host     string
	Port     int
	User     string
	Password string
	Secure   bool

	TimeoutMs    int
	ClientName   string
	MaxRetries   int
	RetryDelayMs int

	SkipAuthentication bool
	Debug              bool
	// LogFormat selects the debug logger's output shape. "" (the
	// default) and "text" use log.Stdlog; "json" uses log.JSONlog.
	LogFormat string
}

// Timeout returns the configured timeout as a time.Duration.
func (c ClientConfiguration) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RetryDelay returns the configured retry delay as a time.Duration.
func (c ClientConfiguration) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// withDefaults returns a copy of c with zero-valued fields replaced by
// their spec-mandated defaults. Port defaults depend on Secure, so it must
// run after Secure is known.
func (c ClientConfiguration) withDefaults() ClientConfiguration {
	if c.Port == 0 {
		if c.Secure {
			c.Port = 465
		} else {
			c.Port = 587
		}
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = 10000
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelayMs == 0 {
		c.RetryDelayMs = 1000
	}
	if c.ClientName == "" {
		c.ClientName = localHostname()
	}
	return c
}

// localHostname returns the machine's host name for use as the EHLO/HELO
// identity, falling back to "localhost" if it cannot be determined.
func localHostname() string {
	hn, err := os.Hostname()
	if err != nil || hn == "" {
		return "localhost"
	}
	return hn
}

// HeaderField is a user-supplied extra header, kept in the order the
// caller provided it.
type HeaderField struct {
	Name  string
	Value string
}

// MessageDescription describes a single outbound message.
type MessageDescription struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	ReplyTo string

	Subject string
	Text    string
	HTML    string

	Headers []HeaderField
}

// Outcome tags a SendResult as a success or a failure. SendResult is a sum
// type, not an error return: Send never raises, it always resolves to one
// of these two shapes.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// SendResult is the tagged outcome of a Send call.
type SendResult struct {
	Outcome   Outcome
	MessageID string
	Message   []byte
	Err       *SendError
}

// Success reports whether the result represents a successful delivery.
func (r SendResult) Success() bool {
	return r.Outcome == OutcomeSuccess
}
