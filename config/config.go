// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package config assembles a mikromail.ClientConfiguration from three
// layers, lowest precedence first: a direct programmatic configuration, a
// JSON file, and finally command-line flags. Built-in defaults are not
// applied here; mikromail.NewClient fills in zero-valued fields. The flag
// scanner is hand-written rather than built on the flag
// package or a third-party flags library: a flag expecting a value that
// has no following token, or a numeric flag given a non-numeric value,
// must be silently ignored rather than erroring, which no flag package in
// the ecosystem implements as a first-class mode.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/mikromail/mikromail"
	mmlog "github.com/mikromail/mikromail/log"
)

// DefaultConfigPath is the JSON config file name consulted when the
// caller does not override it.
const DefaultConfigPath = "mikromail.config.json"

// configLogger reports malformed or unreadable config files. It is the
// package's own ambient Logger rather than the bare stdlib log package,
// consistent with how smtp.Client and Client route their own
// debug/error output.
var configLogger mmlog.Logger = mmlog.New(os.Stderr, mmlog.LevelWarn)

// Load merges programmatic, a JSON config file, and CLI args into a
// single ClientConfiguration, then validates the result. A missing JSON
// file is not an error; malformed JSON is logged and ignored.
func Load(programmatic mikromail.ClientConfiguration, jsonPath string, args []string) (mikromail.ClientConfiguration, error) {
	cfg := programmatic

	if jsonPath == "" {
		jsonPath = DefaultConfigPath
	}
	cfg = mergeJSONFile(cfg, jsonPath)
	cfg = mergeFlags(cfg, args)

	if cfg.Host == "" {
		return cfg, errors.New("config: host is required")
	}
	return cfg, nil
}

// jsonConfig mirrors the subset of ClientConfiguration a file may
// override; fields absent from the file are left untouched in cfg.
type jsonConfig struct {
	Host               *string `json:"host"`
	Port               *int    `json:"port"`
	User               *string `json:"user"`
	Password           *string `json:"password"`
	Secure             *bool   `json:"secure"`
	TimeoutMs          *int    `json:"timeout_ms"`
	ClientName         *string `json:"client_name"`
	MaxRetries         *int    `json:"max_retries"`
	RetryDelayMs       *int    `json:"retry_delay_ms"`
	SkipAuthentication *bool   `json:"skip_authentication"`
	Debug              *bool   `json:"debug"`
	LogFormat          *string `json:"log_format"`
}

func mergeJSONFile(cfg mikromail.ClientConfiguration, path string) mikromail.ClientConfiguration {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			configLogger.Warnf(mmlog.Log{Format: "config: could not read %s: %v", Messages: []interface{}{path, err}})
		}
		return cfg
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		configLogger.Warnf(mmlog.Log{Format: "config: malformed JSON in %s, ignoring: %v", Messages: []interface{}{path, err}})
		return cfg
	}

	if jc.Host != nil {
		cfg.Host = *jc.Host
	}
	if jc.Port != nil {
		cfg.Port = *jc.Port
	}
	if jc.User != nil {
		cfg.User = *jc.User
	}
	if jc.Password != nil {
		cfg.Password = *jc.Password
	}
	if jc.Secure != nil {
		cfg.Secure = *jc.Secure
	}
	if jc.TimeoutMs != nil {
		cfg.TimeoutMs = *jc.TimeoutMs
	}
	if jc.ClientName != nil {
		cfg.ClientName = *jc.ClientName
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	if jc.RetryDelayMs != nil {
		cfg.RetryDelayMs = *jc.RetryDelayMs
	}
	if jc.SkipAuthentication != nil {
		cfg.SkipAuthentication = *jc.SkipAuthentication
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
	if jc.LogFormat != nil {
		cfg.LogFormat = *jc.LogFormat
	}
	return cfg
}

// mergeFlags scans args for the recognized flags, silently skipping
// anything malformed: an unknown token, a value-flag with nothing
// following it, or a numeric flag given a non-numeric value.
func mergeFlags(cfg mikromail.ClientConfiguration, args []string) mikromail.ClientConfiguration {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--host":
			if v, ok := nextArg(args, i); ok {
				cfg.Host = v
				i++
			}
		case "--user":
			if v, ok := nextArg(args, i); ok {
				cfg.User = v
				i++
			}
		case "--password":
			if v, ok := nextArg(args, i); ok {
				cfg.Password = v
				i++
			}
		case "--port":
			if v, ok := nextIntArg(args, i); ok {
				cfg.Port = v
				i++
			}
		case "--retries":
			if v, ok := nextIntArg(args, i); ok {
				cfg.MaxRetries = v
				i++
			}
		case "--secure":
			cfg.Secure = true
		case "--debug":
			cfg.Debug = true
		case "--log-format":
			if v, ok := nextArg(args, i); ok {
				cfg.LogFormat = v
				i++
			}
		}
	}
	return cfg
}

func nextArg(args []string, i int) (string, bool) {
	if i+1 >= len(args) {
		return "", false
	}
	return args[i+1], true
}

func nextIntArg(args []string, i int) (int, bool) {
	v, ok := nextArg(args, i)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ErrInvalid is the sentinel wrapped by every error Validate returns, so
// callers can test for it with errors.Is. The missing-host error returned
// by Load does not wrap it.
var ErrInvalid = errors.New("config: invalid configuration")

// Validate re-checks a ClientConfiguration outside of Load, e.g. after a
// caller constructs one entirely programmatically.
func Validate(cfg mikromail.ClientConfiguration) error {
	if cfg.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalid)
	}
	return nil
}
