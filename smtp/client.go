// SPDX-FileCopyrightText: Copyright 2010 The Go Authors. All rights reserved.
// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// Original net/smtp code from the Go stdlib by the Go Authors.
// Use of this source code is governed by a BSD-style
// LICENSE file that can be found in this directory.
//
// go-mail specific modifications by the go-mail Authors.
// Licensed under the MIT License.
//
// SPDX-License-Identifier: BSD-3-Clause AND MIT

// Package smtp implements the client side of the Simple Mail Transfer
// Protocol (RFC 5321), with the extensions STARTTLS (RFC 3207) and AUTH
// (RFC 4954, mechanisms PLAIN/LOGIN/CRAM-MD5). Unlike net/smtp, the Client
// tracks an explicit session Phase rather than a pair of booleans, so an
// out-of-order command fails fast instead of silently doing the wrong
// thing.
package smtp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/mikromail/mikromail/log"
	"golang.org/x/text/secure/precis"
)

// ErrWrongPhase is returned when a command is issued in a Phase that does
// not permit it, e.g. Rcpt before Mail.
type ErrWrongPhase struct {
	Command string
	Current Phase
}

func (e *ErrWrongPhase) Error() string {
	return fmt.Sprintf("smtp: cannot issue %s in phase %s", e.Command, e.Current)
}

// ResponseError carries the full text of an unexpected server response
// verbatim, so callers can inspect the enhanced status code themselves.
type ResponseError struct {
	Code int
	Msg  string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%d %s", e.Code, e.Msg)
}

// Client is a single-use connection to an SMTP server. It is not safe for
// concurrent use by more than one goroutine; every command is serialized
// and the caller blocks at each network round trip.
type Client struct {
	Text *textproto.Conn

	conn       net.Conn
	serverName string
	localName  string
	secure     bool
	phase      Phase
	caps       *Capabilities
	timeout    time.Duration

	authActive bool
	debug      bool
	logger     log.Logger

	mu sync.Mutex
}

// SetDebugLog enables or disables wire-level debug logging.
func (c *Client) SetDebugLog(v bool) {
	c.debug = v
}

// SetLogger overrides the logger used for debug output.
func (c *Client) SetLogger(l log.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Phase returns the client's current session phase.
func (c *Client) Phase() Phase { return c.phase }

// Secure reports whether the underlying stream is currently encrypted.
func (c *Client) Secure() bool { return c.secure }

// Capabilities returns the capability set parsed from the last EHLO
// response.
func (c *Client) Capabilities() *Capabilities { return c.caps }

// resetDeadline extends the connection deadline by the client's configured
// timeout, or clears it if no timeout was configured.
func (c *Client) resetDeadline() error {
	if c.timeout <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}

// cmd writes a command line and reads the response, enforcing the expected
// reply code. Credential-bearing exchanges are redacted in the debug log
// based on the command verb, not a mutable last-command field.
func (c *Client) cmd(expectCode int, format string, args ...interface{}) (int, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.resetDeadline(); err != nil {
		return 0, "", err
	}

	line := fmt.Sprintf(format, args...)
	c.debugLog(log.DirClientToServer, redactCommand(line, c.authActive))

	id, err := c.Text.Cmd("%s", line)
	if err != nil {
		return 0, "", err
	}
	c.Text.StartResponse(id)
	defer c.Text.EndResponse(id)

	code, msg, err := c.Text.ReadResponse(expectCode)
	logMsg := msg
	if c.authActive && code >= 300 && code < 400 {
		logMsg = "[Credentials hidden]"
	}
	c.debugLog(log.DirServerToClient, fmt.Sprintf("%d %s", code, logMsg))
	if err != nil {
		var txtErr *textproto.Error
		if errors.As(err, &txtErr) {
			return txtErr.Code, txtErr.Msg, &ResponseError{Code: txtErr.Code, Msg: txtErr.Msg}
		}
		return code, msg, err
	}
	return code, msg, nil
}

// redactCommand hides AUTH PLAIN/LOGIN payloads and any line sent while an
// auth exchange is active. auth() sets authActive before it sends the AUTH
// line; the prefix check covers an AUTH PLAIN/LOGIN line sent outside it.
func redactCommand(line string, authActive bool) string {
	upper := strings.ToUpper(line)
	if authActive || strings.HasPrefix(upper, "AUTH PLAIN") || strings.HasPrefix(upper, "AUTH LOGIN") {
		return "[Credentials hidden]"
	}
	return line
}

func (c *Client) debugLog(dir log.Direction, msg string) {
	if !c.debug || c.logger == nil {
		return
	}
	c.logger.Debugf(log.Log{Direction: dir, Format: "%s", Messages: []interface{}{msg}})
}

// Hello sends EHLO and parses the server's capability list. It transitions
// PhaseGreeted/PhaseSecured -> PhaseEhloed/PhaseSecured (the STARTTLS
// transition back into PhaseSecured is handled by StartTLS, which calls
// Hello again after the upgrade).
func (c *Client) Hello(localName string) error {
	if c.phase != PhaseGreeted && c.phase != PhaseSecured {
		return &ErrWrongPhase{Command: "EHLO", Current: c.phase}
	}
	if localName != "" {
		c.localName = localName
	}
	code, msg, err := c.cmd(250, "EHLO %s", c.localName)
	if err != nil {
		return err
	}
	c.caps = parseCapabilities(code, msg)
	if c.phase == PhaseGreeted {
		c.phase = PhaseEhloed
	}
	return nil
}

// parseCapabilities splits a multi-line EHLO response into an uppercase
// token set, keeping the raw AUTH line (mechanism names) verbatim.
func parseCapabilities(_ int, msg string) *Capabilities {
	caps := newCapabilities()
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // greeting/hostname echo line
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		token := strings.ToUpper(line)
		caps.tokens[firstWord(token)] = struct{}{}
		if strings.HasPrefix(token, "AUTH") {
			caps.hasAuth = true
			rest := strings.TrimSpace(line[len("AUTH"):])
			caps.authLine = rest
		}
	}
	return caps
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// StartTLS issues STARTTLS, upgrades the connection in place, and re-sends
// EHLO as RFC 3207 requires (capabilities must be re-negotiated over the
// encrypted channel).
func (c *Client) StartTLS(params TLSParams) error {
	if c.phase != PhaseEhloed {
		return &ErrWrongPhase{Command: "STARTTLS", Current: c.phase}
	}
	if _, _, err := c.cmd(220, "STARTTLS"); err != nil {
		return err
	}
	if params.ServerName == "" {
		params.ServerName = c.serverName
	}
	if err := c.UpgradeToTLS(params); err != nil {
		return err
	}
	c.phase = PhaseSecured
	return c.Hello(c.localName)
}

// Authenticate selects the strongest mechanism advertised by the server
// (CRAM-MD5 > LOGIN > PLAIN, defaulting to PLAIN when no AUTH line was
// sent) and runs the SASL exchange. It transitions to PhaseAuthenticated.
func (c *Client) Authenticate(user, password string) error {
	if c.phase != PhaseEhloed && c.phase != PhaseSecured {
		return &ErrWrongPhase{Command: "AUTH", Current: c.phase}
	}
	user, err := precis.UsernameCaseMapped.String(user)
	if err != nil {
		return fmt.Errorf("smtp: normalizing username: %w", err)
	}
	password, err = precis.OpaqueString.String(password)
	if err != nil {
		return fmt.Errorf("smtp: normalizing password: %w", err)
	}

	mech := SelectMechanism(c.caps.AuthLine())
	var a Auth
	switch mech {
	case "CRAM-MD5":
		a = CRAMMD5Auth(user, password)
	case "LOGIN":
		a = LoginAuth(user, password, c.serverName)
	default:
		a = PlainAuth("", user, password, c.serverName)
	}
	if err := c.auth(a); err != nil {
		return err
	}
	c.phase = PhaseAuthenticated
	return nil
}

// SkipAuthentication moves the session straight to PhaseAuthenticated
// without sending AUTH, for servers that accept mail from this client
// unauthenticated (e.g. an internal relay on a trusted network).
func (c *Client) SkipAuthentication() error {
	if c.phase != PhaseEhloed && c.phase != PhaseSecured {
		return &ErrWrongPhase{Command: "AUTH", Current: c.phase}
	}
	c.phase = PhaseAuthenticated
	return nil
}

// auth drives the generic SASL challenge/response loop described in RFC
// 4954.
func (c *Client) auth(a Auth) error {
	c.mu.Lock()
	c.authActive = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.authActive = false
		c.mu.Unlock()
	}()

	mech, resp, err := a.Start(&ServerInfo{Name: c.serverName, TLS: c.secure, Auth: strings.Fields(c.caps.AuthLine())})
	if err != nil {
		return err
	}

	encoded := encodeB64(resp)
	code, msg, err := c.cmd(0, "%s", strings.TrimSpace(fmt.Sprintf("AUTH %s %s", mech, encoded)))
	for {
		if err != nil {
			return err
		}
		var challenge []byte
		switch code {
		case 334:
			challenge, err = decodeB64(msg)
			if err != nil {
				return err
			}
		case 235:
			return nil
		default:
			return &ResponseError{Code: code, Msg: msg}
		}
		resp, err = a.Next(challenge, code == 334)
		if err != nil {
			return err
		}
		if resp == nil {
			return nil
		}
		code, msg, err = c.cmd(0, "%s", encodeB64(resp))
	}
}

// Mail issues MAIL FROM and transitions to PhaseMailIssued.
func (c *Client) Mail(from string) error {
	if c.phase != PhaseAuthenticated {
		return &ErrWrongPhase{Command: "MAIL", Current: c.phase}
	}
	if _, _, err := c.cmd(250, "MAIL FROM:<%s>", from); err != nil {
		return err
	}
	c.phase = PhaseMailIssued
	return nil
}

// Rcpt issues RCPT TO and transitions to PhaseRcptIssued. It may be called
// multiple times in a row for additional recipients.
func (c *Client) Rcpt(addr string) error {
	if c.phase != PhaseMailIssued && c.phase != PhaseRcptIssued {
		return &ErrWrongPhase{Command: "RCPT", Current: c.phase}
	}
	if _, _, err := c.cmd(250, "RCPT TO:<%s>", addr); err != nil {
		return err
	}
	c.phase = PhaseRcptIssued
	return nil
}

// Data issues DATA, returning a writer for the message body. The returned
// writer is a textproto.DotWriter: it dot-stuffs any body line beginning
// with "." (RFC 5321 §4.5.2) and appends the CRLF.CRLF terminator itself
// on Close, which then reads the final 250 response and transitions back
// to PhaseAuthenticated. The caller must not write its own terminator.
func (c *Client) Data() (io.WriteCloser, error) {
	if c.phase != PhaseRcptIssued {
		return nil, &ErrWrongPhase{Command: "DATA", Current: c.phase}
	}
	if _, _, err := c.cmd(354, "DATA"); err != nil {
		return nil, err
	}
	c.phase = PhaseDataOpen
	return &dataWriter{c: c, WriteCloser: c.Text.DotWriter()}, nil
}

// dataWriter wraps the textproto dot-writer so Close can additionally read
// the server's final response and advance the session phase.
type dataWriter struct {
	c *Client
	io.WriteCloser
}

func (d *dataWriter) Close() error {
	if err := d.WriteCloser.Close(); err != nil {
		return err
	}
	if err := d.c.resetDeadline(); err != nil {
		return err
	}
	d.c.debugLog(log.DirClientToServer, "[message body]")
	_, msg, err := d.c.Text.ReadResponse(250)
	d.c.debugLog(log.DirServerToClient, "250 "+msg)
	if err != nil {
		var txtErr *textproto.Error
		if errors.As(err, &txtErr) {
			return &ResponseError{Code: txtErr.Code, Msg: txtErr.Msg}
		}
		return err
	}
	d.c.phase = PhaseAuthenticated
	return nil
}

// Reset sends RSET, aborting the current mail transaction. Used
// best-effort during transient-retry handling; callers typically ignore
// its error and move on to the next attempt.
func (c *Client) Reset() error {
	_, _, err := c.cmd(250, "RSET")
	if err == nil {
		c.phase = PhaseAuthenticated
	}
	return err
}

// Quit sends QUIT and destroys the underlying socket.
func (c *Client) Quit() error {
	_, _, err := c.cmd(221, "QUIT")
	c.phase = PhaseClosed
	closeErr := c.Text.Close()
	if err != nil {
		return err
	}
	return closeErr
}

// Close destroys the underlying socket without sending QUIT, used when a
// failure makes a clean shutdown impossible.
func (c *Client) Close() error {
	c.phase = PhaseClosed
	return c.Text.Close()
}
