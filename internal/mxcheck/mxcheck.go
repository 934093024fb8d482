// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package mxcheck performs a best-effort MX record lookup for a recipient
// domain. It never gates a send: every outcome other than "at least one MX
// record found" turns into a warning string for the caller to log.
package mxcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// defaultNameservers is used when the system resolver config cannot be
// read, mirroring the public-resolver fallback used elsewhere in the
// example pack.
var defaultNameservers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// systemNameservers is a package-level func var, swappable by tests, that
// otherwise reads /etc/resolv.conf and falls back to defaultNameservers.
var systemNameservers = func() []string {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return defaultNameservers
	}
	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		if !strings.Contains(s, ":") {
			s += ":53"
		}
		servers = append(servers, s)
	}
	return servers
}

// Warn resolves MX records for domain and returns human-readable warning
// strings: one if resolution failed, one if resolution succeeded but
// returned no records, or none at all if at least one MX record was found.
func Warn(ctx context.Context, domain string) []string {
	records, err := lookupMX(ctx, domain)
	if err != nil {
		return []string{fmt.Sprintf("mxcheck: could not resolve MX for %q: %v", domain, err)}
	}
	if len(records) == 0 {
		return []string{fmt.Sprintf("mxcheck: domain %q has no MX records", domain)}
	}
	return nil
}

func lookupMX(ctx context.Context, domain string) ([]*dns.MX, error) {
	fqdn := dns.Fqdn(domain)
	client := new(dns.Client)
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeMX)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range systemNameservers() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		resp, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("mxcheck: %s responded with rcode %d", server, resp.Rcode)
			continue
		}
		var records []*dns.MX
		for _, rr := range resp.Answer {
			if mx, ok := rr.(*dns.MX); ok {
				records = append(records, mx)
			}
		}
		return records, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("mxcheck: no nameservers available for %q", domain)
	}
	return nil, lastErr
}
