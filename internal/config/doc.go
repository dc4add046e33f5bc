// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for marketchat.
//
// # Configuration Precedence
//
// Later sources win:
//   - Built-in defaults
//   - ~/.marketchat/config.toml
//   - .env in the working directory or ~/.marketchat (never overriding
//     variables already set)
//   - Environment variables (MARKETCHAT_*, ALPHA_VANTAGE_API_KEY)
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := stream.NewClient(stream.Options{BaseURL: cfg.Completion.BaseURL})
package config
