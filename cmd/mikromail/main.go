// SPDX-FileCopyrightText: Copyright (c) The go-mail Authors
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mikromail/mikromail"
	"github.com/mikromail/mikromail/config"
	"github.com/mikromail/mikromail/internal/mxcheck"
)

func main() {
	args := os.Args[1:]

	cfg, err := config.Load(mikromail.ClientConfiguration{}, "", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mikromail: %v\n", err)
		os.Exit(1)
	}

	msg := buildMessage(args)

	client := mikromail.NewClient(cfg)
	result := client.Send(msg)
	_ = client.Close()

	if !result.Success() {
		fmt.Fprintf(os.Stderr, "mikromail: send failed: %s\n", result.Err.Error())
		os.Exit(1)
	}
	fmt.Printf("mikromail: sent, message-id %s\n", result.MessageID)

	warnRecipientDomains(msg)
}

func buildMessage(args []string) mikromail.MessageDescription {
	var msg mikromail.MessageDescription
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--to":
			if v, ok := nextArg(args, i); ok {
				msg.To = append(msg.To, v)
				i++
			}
		case "--subject":
			if v, ok := nextArg(args, i); ok {
				msg.Subject = v
				i++
			}
		case "--text":
			if v, ok := nextArg(args, i); ok {
				msg.Text = v
				i++
			}
		case "--html":
			if v, ok := nextArg(args, i); ok {
				msg.HTML = v
				i++
			}
		}
	}
	return msg
}

func nextArg(args []string, i int) (string, bool) {
	if i+1 >= len(args) {
		return "", false
	}
	return args[i+1], true
}

// warnRecipientDomains runs the best-effort MX check for every distinct
// recipient domain, after the send has already completed.
func warnRecipientDomains(msg mikromail.MessageDescription) {
	seen := make(map[string]bool)
	ctx := context.Background()
	for _, to := range msg.To {
		domain := domainOf(to)
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		for _, w := range mxcheck.Warn(ctx, domain) {
			fmt.Fprintln(os.Stderr, w)
		}
	}
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 {
		return addr[i+1:]
	}
	return ""
}
