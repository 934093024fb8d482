// SPDX-License-Identifier: MIT

package smtp

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
)

// cramMD5Auth is the type that satisfies the Auth interface for CRAM-MD5
// (RFC 2195).
type cramMD5Auth struct {
	username, secret string
}

// CRAMMD5Auth returns an [Auth] that implements the CRAM-MD5 challenge-response
// mechanism: the client never puts the password on the wire, only an
// HMAC-MD5 digest of the server's challenge keyed on the password.
func CRAMMD5Auth(username, secret string) Auth {
	return &cramMD5Auth{username: username, secret: secret}
}

func (a *cramMD5Auth) Start(_ *ServerInfo) (string, []byte, error) {
	return "CRAM-MD5", nil, nil
}

func (a *cramMD5Auth) Next(challenge []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	mac := hmac.New(md5.New, []byte(a.secret))
	mac.Write(challenge)
	digest := hex.EncodeToString(mac.Sum(nil))
	return []byte(a.username + " " + digest), nil
}
