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
	"errors"
	"strings"
)

// ServerInfo records information about an SMTP server advertised during the
// EHLO exchange, passed to an Auth mechanism's Start method.
type ServerInfo struct {
	Name string // SMTP server name
	TLS  bool   // using TLS, either via STARTTLS or implicit TLS
	Auth []string
}

// Auth is implemented by an SMTP authentication mechanism.
type Auth interface {
	// Start begins an authentication with the server. It returns the name
	// of the authentication protocol and optionally data to include in the
	// initial AUTH message sent to the server.
	Start(server *ServerInfo) (proto string, toServer []byte, err error)

	// Next continues the authentication. The server has just sent the
	// fromServer data. If more is true, the server expects a response,
	// which Next should return as toServer; otherwise Next should return
	// toServer == nil.
	Next(fromServer []byte, more bool) (toServer []byte, err error)
}

var (
	// ErrUnencrypted reports an authentication refused over a connection
	// that is neither TLS-protected nor to localhost. None of the PLAIN,
	// LOGIN or CRAM-MD5 mechanisms in this package return it; they also run
	// over a cleartext connection.
	ErrUnencrypted = errors.New("smtp: authentication unencrypted connection refused")

	// ErrWrongHostname is returned when the server name the session
	// connected to does not match the hostname the Auth mechanism was
	// constructed with.
	ErrWrongHostname = errors.New("smtp: wrong host name")

	// ErrUnexpectedServerChallenge is returned when the server sends a
	// challenge that a mechanism does not expect at that step.
	ErrUnexpectedServerChallenge = errors.New("smtp: unexpected server challenge")
)

// isLocalhost reports whether name is a loopback host name.
func isLocalhost(name string) bool {
	return name == "localhost" || name == "127.0.0.1" || name == "::1"
}

// mechanismPreference lists the AUTH mechanisms this client knows about, in
// the strongest-first order the authenticator selects from.
var mechanismPreference = []string{"CRAM-MD5", "LOGIN", "PLAIN"}

// SelectMechanism inspects the raw AUTH capability line (space-separated
// mechanism names, as advertised by EHLO) and returns the strongest
// mechanism this client supports. If authLine is empty -- including when
// the server sent no AUTH line at all -- it defaults to PLAIN.
func SelectMechanism(authLine string) string {
	advertised := make(map[string]struct{})
	for _, m := range strings.Fields(strings.ToUpper(authLine)) {
		advertised[m] = struct{}{}
	}
	for _, pref := range mechanismPreference {
		if _, ok := advertised[pref]; ok {
			return pref
		}
	}
	return "PLAIN"
}
