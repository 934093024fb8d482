// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

package mikromail

import (
	"os"
	"testing"
)

func TestWithDefaultsPlainPort(t *testing.T) {
	cfg := ClientConfiguration{}.withDefaults()
	if cfg.Port != 587 {
		t.Errorf("Port = %d, want 587", cfg.Port)
	}
}

func TestWithDefaultsSecurePort(t *testing.T) {
	cfg := ClientConfiguration{Secure: true}.withDefaults()
	if cfg.Port != 465 {
		t.Errorf("Port = %d, want 465", cfg.Port)
	}
}

func TestWithDefaultsDoesNotOverrideExplicitValues(t *testing.T) {
	cfg := ClientConfiguration{Port: 2525, MaxRetries: 7, RetryDelayMs: 250, TimeoutMs: 5000, ClientName: "mta.example"}.withDefaults()
	if cfg.Port != 2525 || cfg.MaxRetries != 7 || cfg.RetryDelayMs != 250 || cfg.TimeoutMs != 5000 || cfg.ClientName != "mta.example" {
		t.Errorf("withDefaults overrode an explicit value: %+v", cfg)
	}
}

func TestWithDefaultsFillsRemainingFields(t *testing.T) {
	cfg := ClientConfiguration{}.withDefaults()
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelayMs != 1000 {
		t.Errorf("RetryDelayMs = %d, want 1000", cfg.RetryDelayMs)
	}
	if cfg.TimeoutMs != 10000 {
		t.Errorf("TimeoutMs = %d, want 10000", cfg.TimeoutMs)
	}
	want := "localhost"
	if hn, err := os.Hostname(); err == nil && hn != "" {
		want = hn
	}
	if cfg.ClientName != want {
		t.Errorf("ClientName = %q, want %q", cfg.ClientName, want)
	}
}

func TestLocalHostnameNeverEmpty(t *testing.T) {
	if localHostname() == "" {
		t.Error("localHostname() returned empty string")
	}
}

func TestTimeoutAndRetryDelayConversions(t *testing.T) {
	cfg := ClientConfiguration{TimeoutMs: 2500, RetryDelayMs: 750}
	if cfg.Timeout().Milliseconds() != 2500 {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
	if cfg.RetryDelay().Milliseconds() != 750 {
		t.Errorf("RetryDelay() = %v", cfg.RetryDelay())
	}
}

func TestSendResultSuccess(t *testing.T) {
	if !(SendResult{Outcome: OutcomeSuccess}).Success() {
		t.Error("expected Success() true for OutcomeSuccess")
	}
	if (SendResult{Outcome: OutcomeFailure}).Success() {
		t.Error("expected Success() false for OutcomeFailure")
	}
}
