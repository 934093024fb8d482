// SPDX-FileCopyrightText: Copyright 2010 The Go Authors. All rights reserved.
// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// Use of this source code is governed by a BSD-style
// LICENSE file that can be found in this directory.
//
// SPDX-License-Identifier: BSD-3-Clause AND MIT

package smtp

import "encoding/base64"

// encodeB64 encodes an AUTH exchange payload for the wire. A nil response
// (the "no initial response" case) encodes to the empty string; auth()
// then trims the trailing space, so the AUTH command carries only the
// mechanism name.
func encodeB64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// decodeB64 decodes a base64-encoded server challenge received on a 334
// continuation line.
func decodeB64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
