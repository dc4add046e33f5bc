// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render projects a transcript snapshot into terminal text.
//
// Prose goes through glamour. Language-tagged code fences are cut out and
// drawn by components.CodeBlock, tool results by components.StockChart.
// Rendering never mutates the transcript; callers pass the slice returned
// by Transcript.Messages.
package render
