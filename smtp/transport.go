// SPDX-FileCopyrightText: Copyright 2010 The Go Authors. All rights reserved.
// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// Original net/smtp code from the Go stdlib by the Go Authors.
// Use of this source code is governed by a BSD-style
// LICENSE file that can be found in this directory.
//
// SPDX-License-Identifier: BSD-3-Clause AND MIT

package smtp

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"time"
)

// TLSParams configures the transport-encryption requirements: TLS 1.2
// minimum, a HIGH:!aNULL:!MD5:!RC4-equivalent cipher restriction, and
// mandatory certificate verification.
type TLSParams struct {
	ServerName string
	// CipherSuites, if nil, defaults to a list equivalent to the OpenSSL
	// "HIGH:!aNULL:!MD5:!RC4" string: ECDHE AEAD suites using AES-GCM or
	// ChaCha20-Poly1305, no anonymous or MD5/RC4 suites. CBC suites are
	// not included. Go's TLS 1.3 suites are always AEAD and need no
	// filtering.
	CipherSuites []uint16
	// RootCAs, if non-nil, replaces the system trust store for this
	// connection's certificate verification -- needed to pin a private CA
	// (e.g. an internal relay's self-signed certificate).
	RootCAs *x509.CertPool
}

// defaultCipherSuites is the curated HIGH:!aNULL:!MD5:!RC4-equivalent list.
var defaultCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

func (p TLSParams) config() *tls.Config {
	suites := p.CipherSuites
	if suites == nil {
		suites = defaultCipherSuites
	}
	return &tls.Config{
		ServerName:         p.ServerName,
		MinVersion:         tls.VersionTLS12,
		CipherSuites:       suites,
		RootCAs:            p.RootCAs,
		InsecureSkipVerify: false,
	}
}

// ErrGreetingTimeout is returned when no 220 greeting arrives within the
// connection timeout.
var ErrGreetingTimeout = errors.New("smtp: timed out waiting for server greeting")

// Connect establishes a plaintext TCP connection to host:port, waits for
// the 220 greeting within timeout, and returns a Client in PhaseGreeted.
func Connect(host string, port int, timeout time.Duration) (*Client, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return newClientFromConn(conn, host, false, timeout)
}

// ConnectTLS establishes an implicit-TLS connection (the session is
// encrypted from the very first byte, as used on port 465) and waits for
// the 220 greeting within timeout.
func ConnectTLS(host string, port int, timeout time.Duration, params TLSParams) (*Client, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	if params.ServerName == "" {
		params.ServerName = host
	}
	dialer := net.Dialer{Timeout: timeout}
	tlsDialer := tls.Dialer{NetDialer: &dialer, Config: params.config()}
	conn, err := tlsDialer.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return newClientFromConn(conn, host, true, timeout)
}

func newClientFromConn(conn net.Conn, host string, secure bool, timeout time.Duration) (*Client, error) {
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	text := textproto.NewConn(conn)
	if _, _, err := text.ReadResponse(220); err != nil {
		_ = text.Close()
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrGreetingTimeout
		}
		return nil, err
	}
	if timeout > 0 {
		_ = conn.SetDeadline(time.Time{})
	}
	c := &Client{
		Text:       text,
		conn:       conn,
		serverName: host,
		localName:  "localhost",
		secure:     secure,
		phase:      PhaseGreeted,
		caps:       newCapabilities(),
		timeout:    timeout,
	}
	return c, nil
}

// UpgradeToTLS wraps the existing plaintext stream in a TLS client
// connection in place. Ownership of the plaintext net.Conn transfers to the
// TLS wrapper; the plaintext reference is not reachable afterward.
func (c *Client) UpgradeToTLS(params TLSParams) error {
	if params.ServerName == "" {
		params.ServerName = c.serverName
	}
	tlsConn := tls.Client(c.conn, params.config())
	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("tls upgrade failed: %w", err)
	}
	state := tlsConn.ConnectionState()
	if !state.HandshakeComplete {
		return errors.New("tls upgrade failed: handshake incomplete")
	}
	c.conn = tlsConn
	c.Text = textproto.NewConn(tlsConn)
	c.secure = true
	return nil
}
