// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/multiverse/eventcache"
)

// renderChunkInspector draws the stored chunk chain in place of the
// timeline and reports the total line count and clamped offset for
// the scrollbar. Chunks arrive from the reconstruction walk tail
// first; rendering reverses them so the oldest chunk sits at the top
// and the chain reads downward in history order, an "↑" connector
// between blocks pointing at the previous link. The height scroll
// counts rows up from the bottom of the chain, so offset zero shows
// the newest chunk and scrolling up moves toward history; the
// end-of-content sentinel is clamped here where the real content
// height is known.
func renderChunkInspector(room *roomModel, theme Theme, width, height int) (string, int, int) {
	if len(room.chunks) == 0 {
		empty := lipgloss.NewStyle().Foreground(theme.FaintText).Render("no cached chunks")
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, empty), 0, 0
	}

	centered := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var lines []string
	for index := len(room.chunks) - 1; index >= 0; index-- {
		chunk := &room.chunks[index]
		lines = append(lines, strings.Split(renderChunkBlock(chunk, theme, width), "\n")...)
		lines = append(lines, centered.Render("↑"))
	}

	total := len(lines)
	offset := room.chunkScroll.Clamp(total, height)
	maximum := total - height
	if maximum < 0 {
		maximum = 0
	}
	lines = lines[maximum-offset:]
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), total, offset
}

func renderChunkBlock(chunk *eventcache.Chunk, theme Theme, width int) string {
	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(theme.BorderColor).
		Width(width - 2)

	if chunk.Kind == eventcache.KindGap {
		gap := lipgloss.NewStyle().
			Foreground(theme.AccentText).
			Render(fmt.Sprintf("Gap %s", chunk.GapToken))
		return borderStyle.Render(lipgloss.NewStyle().
			Width(width - 4).
			Align(lipgloss.Center).
			Render(gap))
	}

	titleStyle := lipgloss.NewStyle().Foreground(theme.HeaderForeground).Bold(true)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	var content strings.Builder
	content.WriteString(titleStyle.Render(fmt.Sprintf("Chunk identifier #%d", chunk.ChunkID)))
	for _, event := range chunk.Events {
		content.WriteString("\n")
		content.WriteString(faint.Render(shortenEventID(event.EventID.String())))
	}
	return borderStyle.Render(content.String())
}

// shortenEventID abbreviates long event IDs to their first five and
// last three characters for the inspector listing.
func shortenEventID(eventID string) string {
	if len(eventID) <= 8 {
		return eventID
	}
	return eventID[:5] + "~" + eventID[len(eventID)-3:]
}
