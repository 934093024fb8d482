// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package compose assembles the RFC 5322 header block and RFC 2045/2046
// MIME body for an outgoing message. It is grounded in the header-folding
// and boundary-handling approach of a msgWriter-style composer, but is
// hand-rolled rather than built on mime/multipart: the exact boundary
// token format and header order below are fixed by contract, not left to
// the stdlib writer's defaults.
package compose

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mikromail/mikromail/internal/encode"
)

// MaxSize is the largest composed message blob mikromail will send.
// Oversize is a permanent failure raised before DATA is issued.
const MaxSize = 10 * 1024 * 1024

// ErrTooLarge is returned by Compose when the assembled blob exceeds
// MaxSize.
var ErrTooLarge = errors.New("compose: message exceeds maximum size")

// HeaderField is a user-supplied extra header, kept in the order the
// caller provided it.
type HeaderField struct {
	Name  string
	Value string
}

// Input carries everything Compose needs from a message description. From
// is always resolved and To always list-valued by the time it reaches
// here; Bcc is accepted only to decide RCPT-vs-header membership elsewhere
// -- it is deliberately absent from Input because no header path may ever
// see it.
type Input struct {
	From    string
	To      []string
	Cc      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
	Headers []HeaderField
	Domain  string // Message-ID domain; the part of config.user after '@', or "localhost".
}

// Result is the composed message: the raw RFC 5322 byte blob and the
// Message-ID that was embedded in it.
type Result struct {
	Blob      []byte
	MessageID string
}

var reservedHeaders = map[string]bool{
	"from": true, "to": true, "cc": true, "bcc": true,
	"subject": true, "date": true, "message-id": true,
}

var headerNamePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Compose renders in.From/To/... into a complete message blob.
func Compose(in Input) (Result, error) {
	messageID := fmt.Sprintf("<%s@%s>", mustRandomHex(16), domainOrLocalhost(in.Domain))
	date := time.Now().UTC().Format(time.RFC1123Z)

	var b strings.Builder
	writeHeader(&b, "From", in.From)
	writeHeader(&b, "To", strings.Join(in.To, ", "))
	writeHeader(&b, "Subject", in.Subject)
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&b, "Date: %s\r\n", date)
	b.WriteString("MIME-Version: 1.0\r\n")
	if len(in.Cc) > 0 {
		writeHeader(&b, "Cc", strings.Join(in.Cc, ", "))
	}
	if in.ReplyTo != "" {
		writeHeader(&b, "Reply-To", in.ReplyTo)
	}
	for _, h := range in.Headers {
		if !validExtraHeader(h.Name) {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\r\n", h.Name, encode.SanitizeHeader(h.Value))
	}

	if err := writeBody(&b, in.Text, in.HTML); err != nil {
		return Result{}, err
	}

	blob := []byte(b.String())
	if len(blob) > MaxSize {
		return Result{}, ErrTooLarge
	}
	return Result{Blob: blob, MessageID: messageID}, nil
}

func writeHeader(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "%s: %s\r\n", name, encode.SanitizeHeader(value))
}

func validExtraHeader(name string) bool {
	if reservedHeaders[strings.ToLower(name)] {
		return false
	}
	return headerNamePattern.MatchString(name)
}

// writeBody selects the single-part or multipart/alternative body per
// which of text/html are present, and appends it (content-type headers
// included) to b.
func writeBody(b *strings.Builder, text, html string) error {
	switch {
	case text != "" && html != "":
		boundary, err := randomHex(12)
		if err != nil {
			return err
		}
		boundaryTag := "----=_NextPart_" + boundary
		fmt.Fprintf(b, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundaryTag)
		writePart(b, boundaryTag, "text/plain", text)
		writePart(b, boundaryTag, "text/html", html)
		fmt.Fprintf(b, "--%s--\r\n", boundaryTag)
	case html != "":
		writeSinglePart(b, "text/html", html)
	default:
		writeSinglePart(b, "text/plain", text)
	}
	return nil
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	fmt.Fprintf(b, "--%s\r\n", boundary)
	fmt.Fprintf(b, "Content-Type: %s; charset=utf-8\r\n", contentType)
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	b.WriteString(encode.QuotedPrintable(body))
	b.WriteString("\r\n")
}

func writeSinglePart(b *strings.Builder, contentType, body string) {
	fmt.Fprintf(b, "Content-Type: %s; charset=utf-8\r\n", contentType)
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	b.WriteString(encode.QuotedPrintable(body))
}

func domainOrLocalhost(domain string) string {
	if domain == "" {
		return "localhost"
	}
	return domain
}

// mustRandomHex panics only in the astronomically unlikely case crypto/rand
// itself fails; every caller of Compose already assumes randomness is
// available, same as the rest of the composer's Message-ID/boundary use.
func mustRandomHex(n int) string {
	s, err := randomHex(n)
	if err != nil {
		panic(err)
	}
	return s
}
