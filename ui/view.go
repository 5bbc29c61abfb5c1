// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	spacePaletteMinWidth = 35
	roomHelpMinWidth     = 39
	roomListPreviewMin   = 80
	composerHeight       = 3
)

// View renders the whole screen: the app area, then the current
// mode's overlay spliced on top, then the one-line status bar.
func (model *Model) View() string {
	if model.width <= 0 || model.height <= 1 {
		return ""
	}
	appHeight := model.height - 1

	var view string
	switch {
	case model.mode == ModeLogger && model.loggerView != nil:
		view = model.renderLoggerView(model.width, appHeight)
	case model.room != nil:
		view = model.renderRoomView(model.width, appHeight)
	default:
		view = model.renderWelcome(model.width, appHeight)
	}

	switch model.mode {
	case ModeSpace:
		view = model.overlayBottomRight(view, model.spacePalette(), appHeight)
	case ModeRoom:
		view = model.overlayBottomRight(view, model.roomHelp(), appHeight)
	case ModeRoomList:
		if model.roomList != nil {
			view = model.overlayRoomList(view, appHeight)
		}
	}

	return view + "\n" + model.renderStatusBar()
}

func (model *Model) renderWelcome(width, height int) string {
	italic := lipgloss.NewStyle().Italic(true)
	accent := lipgloss.NewStyle().Foreground(model.theme.SenderForeground)
	centered := lipgloss.NewStyle().Width(width - 8).Align(lipgloss.Center)

	lines := []string{
		centered.Render("Welcome to ✨ multiverse ✨!"),
		"",
		centered.Render("Please take a seat & relax"),
		"",
		"",
		"Use multiverse via " + italic.Render("modes") + ":",
		"* Press " + italic.Render("<Space>") + " to activate the " + accent.Render("Space") + " mode,",
		"* Press " + italic.Render("<r>") + " to activate the " + accent.Render("Room") + " mode,",
		"* Press " + italic.Render("<i>") + " to activate the " + accent.Render("Insert") + " mode,",
		"* Press " + italic.Render("<l>") + " to activate the " + accent.Render("Logger") + " mode,",
		"* Press " + italic.Render("<Esc>") + " to deactivate the current mode,",
		"* Press " + italic.Render("<q>") + " to " + accent.Bold(true).Render("quit") + "!",
	}

	body := lipgloss.NewStyle().Margin(2, 4).Render(strings.Join(lines, "\n"))
	return fillHeight(body, height)
}

func (model *Model) renderRoomView(width, height int) string {
	room := model.room

	titleStyle := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Width(width)
	title := titleStyle.Render(ansi.Truncate(room.title, width, "…"))

	composer := room.composer
	composer.SetWidth(width)
	composerView := composer.View()

	timelineHeight := height - 1 - composerHeight
	if timelineHeight < 1 {
		timelineHeight = 1
	}
	contentWidth := width - 1

	// The scrollbar tracks whichever content fills the pane: timeline
	// items, or inspector lines when the chunk view has replaced them.
	var content string
	totalRows := len(room.items)
	rowOffset := room.scroll.Offset(totalRows)
	if room.details == detailsLinkedChunk {
		content, totalRows, rowOffset = renderChunkInspector(room, model.theme, contentWidth, timelineHeight)
	} else {
		content = renderTimeline(room, model.service.Self(), model.theme, contentWidth, timelineHeight)
	}

	scrollbar := renderScrollbar(
		model.theme,
		timelineHeight,
		totalRows,
		timelineHeight,
		rowOffset,
		model.mode == ModeRoom,
	)
	middle := lipgloss.JoinHorizontal(lipgloss.Top, content, scrollbar)

	return title + "\n" + middle + "\n" + composerView
}

// spacePalette is the command table shown in the bottom-right corner
// while Space mode is active.
func (model *Model) spacePalette() []string {
	rows := [][2]string{
		{"f", "Open room list"},
		{"S", "Start the sync service"},
		{"s", "Stop the sync service"},
		{"c", "Empty all room event caches"},
		{"l", "Open logger"},
	}
	return model.commandTable("Space", rows, spacePaletteMinWidth)
}

func (model *Model) roomHelp() []string {
	if model.room == nil {
		errorStyle := lipgloss.NewStyle().Foreground(model.theme.ErrorText)
		return model.boxLines("Room", []string{errorStyle.Render("No room opened")}, roomHelpMinWidth)
	}
	rows := [][2]string{
		{"b", "Paginate backwards"},
		{"r", "Toggle reaction to last message"},
		{"s", "Goto start of timeline"},
		{"e", "Goto end of timeline"},
		{"t", "View timeline"},
		{"i", "View event ID"},
		{"o", "View event origin"},
		{"l", "View linked chunk"},
		{"m", "Mark as read"},
		{"c", "Empty room event cache"},
	}
	return model.commandTable("Room", rows, roomHelpMinWidth)
}

func (model *Model) commandTable(title string, rows [][2]string, minWidth int) []string {
	keyStyle := lipgloss.NewStyle().Foreground(model.theme.AccentText)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s  %s", keyStyle.Render(row[0]), row[1]))
	}
	return model.boxLines(title, lines, minWidth)
}

// boxLines renders content in a bordered box with a title in the top
// border, returned as individual lines for overlay splicing.
func (model *Model) boxLines(title string, content []string, minWidth int) []string {
	innerWidth := minWidth - 2
	for _, line := range content {
		if width := ansi.StringWidth(line); width > innerWidth {
			innerWidth = width
		}
	}

	borderStyle := lipgloss.NewStyle().Foreground(model.theme.BorderColor)
	titleStyle := lipgloss.NewStyle().Foreground(model.theme.HeaderForeground)

	trailing := strings.Repeat("─", maxInt(0, innerWidth-ansi.StringWidth(title)-3))
	lines := []string{
		borderStyle.Render("┌─ ") + titleStyle.Render(title) + borderStyle.Render(" "+trailing+"┐"),
	}
	padStyle := lipgloss.NewStyle().Width(innerWidth)
	for _, line := range content {
		lines = append(lines, borderStyle.Render("│")+padStyle.Render(line)+borderStyle.Render("│"))
	}
	lines = append(lines, borderStyle.Render("└"+strings.Repeat("─", innerWidth)+"┘"))
	return lines
}

func (model *Model) overlayBottomRight(view string, overlayLines []string, appHeight int) string {
	if len(overlayLines) == 0 {
		return view
	}
	overlayWidth := ansi.StringWidth(overlayLines[0])
	anchorX := model.width - overlayWidth
	if anchorX < 0 {
		anchorX = 0
	}
	anchorY := appHeight - len(overlayLines)
	if anchorY < 0 {
		anchorY = 0
	}
	return spliceOverlay(view, overlayLines, anchorX, anchorY)
}

// overlayRoomList splices the centered room selection overlay: the
// filtered list with the search input above it, plus a preview of the
// highlighted room when the overlay is wide enough.
func (model *Model) overlayRoomList(view string, appHeight int) string {
	overlayWidth := model.width * 9 / 10
	overlayHeight := appHeight * 4 / 5
	if overlayWidth < 20 || overlayHeight < 5 {
		return view
	}

	listWidth := overlayWidth
	previewWidth := 0
	if overlayWidth >= roomListPreviewMin {
		listWidth = overlayWidth / 2
		previewWidth = overlayWidth - listWidth
	}

	left := model.renderRoomListPane(listWidth, overlayHeight)
	overlay := left
	if previewWidth > 0 {
		right := model.renderRoomPreview(previewWidth, overlayHeight)
		overlay = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	anchorX := (model.width - overlayWidth) / 2
	anchorY := (appHeight - overlayHeight) / 2
	return spliceOverlay(view, strings.Split(overlay, "\n"), anchorX, anchorY)
}

func (model *Model) renderRoomListPane(width, height int) string {
	list := model.roomList
	innerWidth := width - 2
	innerHeight := height - 2

	filter := list.filter
	filter.Width = innerWidth - 2
	rows := []string{" " + filter.View()}

	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", innerWidth))
	rows = append(rows, separator)

	visibleRows := innerHeight - len(rows)
	first := 0
	if list.cursor >= visibleRows {
		first = list.cursor - visibleRows + 1
	}
	selectedStyle := lipgloss.NewStyle().
		Background(model.theme.SelectedBackground).
		Foreground(model.theme.SelectedForeground)
	for index := first; index < len(list.rooms) && index < first+visibleRows; index++ {
		room := list.rooms[index]
		name := room.Name
		if name == "" {
			name = room.RoomID.String()
		}
		if index == list.cursor {
			rows = append(rows, selectedStyle.Render(ansi.Truncate(" > "+name, innerWidth, "…")))
		} else {
			rows = append(rows, ansi.Truncate("   "+name, innerWidth, "…"))
		}
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(model.theme.BorderColor).
		Width(innerWidth).
		Height(innerHeight)
	return boxStyle.Render(strings.Join(rows, "\n"))
}

// renderRoomPreview shows the tail of the highlighted room's folded
// timeline so a room can be inspected before opening it.
func (model *Model) renderRoomPreview(width, height int) string {
	innerWidth := width - 2
	innerHeight := height - 2
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(model.theme.BorderColor).
		Width(innerWidth).
		Height(innerHeight)

	summary, ok := model.roomList.selected()
	if !ok {
		empty := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("no rooms")
		return boxStyle.Render(empty)
	}

	items := model.service.TimelineSnapshot(model.ctx, summary.RoomID)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	sender := lipgloss.NewStyle().Foreground(model.theme.SenderForeground)

	var lines []string
	for index := range items {
		item := &items[index]
		body, _, ok := item.Event.MessageBody()
		if !ok || item.Redacted {
			continue
		}
		line := sender.Render(item.Event.Sender.Localpart()) + " " + body
		lines = append(lines, ansi.Truncate(line, innerWidth, "…"))
	}
	if len(lines) == 0 {
		lines = []string{faint.Render("no messages")}
	}
	if len(lines) > innerHeight {
		lines = lines[len(lines)-innerHeight:]
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (model *Model) renderLoggerView(width, height int) string {
	logger := model.loggerView

	panelWidth := 0
	if logger.panelOpen {
		panelWidth = 24
		if panelWidth > width/3 {
			panelWidth = width / 3
		}
	}
	logWidth := width - panelWidth

	records := logger.visibleRecords()
	var lines []string
	for _, record := range records {
		levelStyle := lipgloss.NewStyle().Foreground(model.levelColor(record.Level))
		line := fmt.Sprintf("%s %s %s %s",
			lipgloss.NewStyle().Foreground(model.theme.TimeForeground).Render(record.Time.Format("15:04:05")),
			levelStyle.Render(fmt.Sprintf("%-5s", record.Level.String())),
			lipgloss.NewStyle().Foreground(model.theme.AccentText).Render(record.Target),
			record.Message,
		)
		if record.Attrs != "" {
			line += " " + lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(record.Attrs)
		}
		lines = append(lines, ansi.Truncate(line, logWidth, "…"))
	}

	// The offset counts rows up from the newest record at the bottom.
	offset := logger.scroll.Clamp(len(lines), height)
	maximum := len(lines) - height
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
	logPane := strings.Join(lines, "\n")

	if panelWidth == 0 {
		return logPane
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, logPane, model.renderLoggerPanel(panelWidth, height))
}

func (model *Model) renderLoggerPanel(width, height int) string {
	logger := model.loggerView
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	lines := []string{
		lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true).Render("Targets"),
		faint.Render(fmt.Sprintf("level ≥ %s", logger.minLevel.String())),
		"",
	}
	for index, target := range logger.ring.Targets() {
		marker := "[x] "
		if logger.hiddenTargets[target] {
			marker = "[ ] "
		}
		line := marker + target
		if index == logger.targetCursor {
			line = lipgloss.NewStyle().
				Background(model.theme.SelectedBackground).
				Foreground(model.theme.SelectedForeground).
				Render(line)
		}
		lines = append(lines, ansi.Truncate(line, width-2, "…"))
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(model.theme.BorderColor).
		Width(width - 2).
		Height(height - 2)
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (model *Model) levelColor(level slog.Level) lipgloss.Color {
	switch {
	case level >= slog.LevelError:
		return model.theme.LogError
	case level >= slog.LevelWarn:
		return model.theme.LogWarn
	case level >= slog.LevelInfo:
		return model.theme.LogInfo
	default:
		return model.theme.LogDebug
	}
}

// renderStatusBar draws the bottom line: the active mode on the left,
// the sync service state right-aligned.
func (model *Model) renderStatusBar() string {
	modeColor := model.theme.FaintText
	if model.mode == ModeInsert {
		modeColor = model.theme.InsertIndicator
	}
	left := lipgloss.NewStyle().
		Foreground(modeColor).
		Render(fmt.Sprintf("mode `%s`", model.mode))

	state := model.service.State()
	stateLabel := state.String()
	right := lipgloss.NewStyle().
		Foreground(model.theme.StateColor(stateLabel)).
		Render(fmt.Sprintf("sync service `%s`", stateLabel))

	gap := model.width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// fillHeight pads a rendered block with blank lines to the requested
// height, truncating when taller.
func fillHeight(block string, height int) string {
	lines := strings.Split(block, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
