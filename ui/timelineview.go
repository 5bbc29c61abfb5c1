// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/syncer"
)

const redactedPlaceholder = "<redacted>"

// renderTimeline renders the folded timeline of the opened room into
// a box of the given dimensions, anchored to the bottom: the newest
// visible item sits on the last line. The item scroll offset hides
// that many items from the bottom.
func renderTimeline(room *roomModel, self ref.UserID, theme Theme, width, height int) string {
	visibleCount := len(room.items) - room.scroll.Offset(len(room.items))
	if visibleCount < 0 {
		visibleCount = 0
	}

	var lines []string
	var previousDay string
	for index := 0; index < visibleCount; index++ {
		item := &room.items[index]

		day := dayOf(item.Event.OriginServerTS)
		if day != previousDay && item.Event.OriginServerTS != 0 {
			lines = append(lines, renderDateDivider(item.Event.OriginServerTS, theme, width))
			previousDay = day
		}

		rendered := renderTimelineItem(item, self, theme, width, room.details)
		lines = append(lines, strings.Split(rendered, "\n")...)
	}

	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for len(lines) < height {
		lines = append([]string{""}, lines...)
	}
	return strings.Join(lines, "\n")
}

func dayOf(originServerTS int64) string {
	if originServerTS == 0 {
		return ""
	}
	return time.UnixMilli(originServerTS).Local().Format("2006-01-02")
}

// renderDateDivider produces the centered day separator shown when
// consecutive items cross a local-time day boundary.
func renderDateDivider(originServerTS int64, theme Theme, width int) string {
	label := time.UnixMilli(originServerTS).Local().Format("Mon, _2 Jan 2006")
	divider := fmt.Sprintf("───── %s ─────", label)
	return lipgloss.NewStyle().
		Foreground(theme.TimeForeground).
		Width(width).
		Align(lipgloss.Center).
		Render(divider)
}

// renderTimelineItem renders one folded item: a sender/time header,
// the wrapped body, then optional reaction, read-receipt, and details
// lines. Own messages are right-aligned.
func renderTimelineItem(item *syncer.TimelineItem, self ref.UserID, theme Theme, width int, details detailsView) string {
	own := item.Event.Sender == self

	senderStyle := lipgloss.NewStyle().Foreground(theme.SenderForeground)
	timeStyle := lipgloss.NewStyle().Foreground(theme.TimeForeground)

	header := senderStyle.Render(item.Event.Sender.String())
	if item.Event.OriginServerTS != 0 {
		stamp := time.UnixMilli(item.Event.OriginServerTS).Local().Format("15:04")
		header += " " + timeStyle.Render(stamp)
	}

	var bodyLines []string
	switch {
	case item.Redacted:
		placeholder := lipgloss.NewStyle().
			Foreground(theme.PlaceholderText).
			Italic(true).
			Render(redactedPlaceholder)
		bodyLines = []string{placeholder}
	default:
		body, msgType, ok := item.Event.MessageBody()
		if !ok {
			placeholder := lipgloss.NewStyle().
				Foreground(theme.PlaceholderText).
				Italic(true).
				Render("<" + item.Event.Type + ">")
			bodyLines = []string{placeholder}
			break
		}
		rendered := renderMessageBody(body, msgType, theme, width)
		if item.LocalEcho {
			echoStyle := lipgloss.NewStyle().Italic(true).Faint(true)
			rendered = echoStyle.Render(ansi.Strip(rendered))
		}
		bodyLines = strings.Split(rendered, "\n")
	}

	lines := append([]string{header}, bodyLines...)

	if counts := item.ReactionCounts(); len(counts) > 0 {
		reactionStyle := lipgloss.NewStyle().Background(theme.ReactionBackground)
		var parts []string
		for _, count := range counts {
			parts = append(parts, reactionStyle.Render(fmt.Sprintf(" %s×%d ", count.Key, count.Count)))
		}
		lines = append(lines, strings.Join(parts, " "))
	}

	if len(item.ReadBy) > 0 {
		var localparts []string
		for _, userID := range item.ReadBy {
			localparts = append(localparts, userID.Localpart())
		}
		readStyle := lipgloss.NewStyle().Foreground(theme.TimeForeground).Italic(true)
		lines = append(lines, readStyle.Render("read by "+strings.Join(localparts, ", ")))
	}

	if detail := renderItemDetails(item, theme, details); detail != "" {
		lines = append(lines, detail)
	}

	if own {
		alignStyle := lipgloss.NewStyle().Width(width).Align(lipgloss.Right)
		for index, line := range lines {
			lines[index] = alignStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// renderMessageBody renders m.text through the markdown pipeline;
// emotes and notices stay plain since their bodies are conventionally
// literal.
func renderMessageBody(body, msgType string, theme Theme, width int) string {
	switch msgType {
	case "m.emote":
		style := lipgloss.NewStyle().Foreground(theme.NormalText).Italic(true)
		return style.Render(ansi.Wrap("* "+body, width, " ,.;-+|"))
	case "m.notice":
		style := lipgloss.NewStyle().Foreground(theme.FaintText)
		return style.Render(ansi.Wrap(body, width, " ,.;-+|"))
	default:
		return renderMessageMarkdown(body, theme, width)
	}
}

// renderItemDetails adds the per-item annotation line for the event ID
// and origin timestamp inspection variants. The chunk inspector never
// reaches here; it replaces the whole timeline rendering.
func renderItemDetails(item *syncer.TimelineItem, theme Theme, details detailsView) string {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	switch details {
	case detailsEventID:
		if item.Event.EventID.IsZero() {
			return faint.Render("(pending)")
		}
		return faint.Render(item.Event.EventID.String())
	case detailsOrigin:
		if item.Event.OriginServerTS == 0 {
			return faint.Render("(no origin timestamp)")
		}
		origin := time.UnixMilli(item.Event.OriginServerTS).UTC().Format(time.RFC3339)
		return faint.Render(origin + " " + item.Event.Sender.Server())
	default:
		return ""
	}
}
