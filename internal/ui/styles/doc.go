// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for marketchat.
//
// Colors are lipgloss.AdaptiveColor values so the same palette works on
// light and dark terminals. Price movement uses two semantic colors:
// Accent (emerald) for flat or rising closes and Warning (rose) for
// falling ones.
//
// # Usage
//
//	theme := styles.NewTheme()
//	header := theme.ChangeStyle(delta).Render("+1.25 (+0.68%)")
package styles
