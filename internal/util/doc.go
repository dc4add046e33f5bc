// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by marketchat packages.
//
//   - AtomicWriteFile: crash-safe file writes for the config file
//   - Preview: single-line, rune-safe excerpts for logs and titles
package util
