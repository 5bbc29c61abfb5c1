// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// The parser configuration never changes and the goldmark Parser is
// safe to share; actual parsing creates per-call state via
// Parse(reader).
var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownParserInstance
}

// renderMessageMarkdown renders a message body as styled terminal
// text. Soft line breaks within paragraphs become spaces so
// hard-wrapped source reflows at any terminal width; code blocks,
// lists, and blockquotes keep their structure. Tables and images are
// out of scope for chat messages and fall back to their plain text.
func renderMessageMarkdown(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	// Force the ANSI256 profile: this output always lands in the
	// bubbletea renderer, and auto-detection produces uncolored
	// output when stderr is not a TTY (tests, piped logs).
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &markdownRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)

	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks a goldmark AST directly instead of using the
// renderer interface: terminal output needs accumulate-then-wrap
// semantics, where a paragraph's inline content collects in a buffer
// and word-wraps as a unit when the paragraph closes.
type markdownRenderer struct {
	source []byte
	theme  Theme
	width  int

	output strings.Builder

	// inline accumulates styled fragments within the current
	// paragraph or heading, flushed with word-wrap when it closes.
	inline strings.Builder

	// Prefix stack for nested containers (blockquotes, list items).
	prefixStack     []string
	linePrefix      string
	linePrefixWidth int

	// pendingBullet replaces linePrefix for the next emitted line
	// only, carrying a list item's bullet or number.
	pendingBullet string

	// Style counters rather than booleans so nested emphasis nests.
	boldCount          int
	italicCount        int
	strikethroughCount int

	listStack []listState

	lipRenderer *lipgloss.Renderer

	trailingNewlines int
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (renderer *markdownRenderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

func (renderer *markdownRenderer) currentWidth() int {
	width := renderer.width - renderer.linePrefixWidth
	if width < 10 {
		width = 10
	}
	return width
}

func (renderer *markdownRenderer) pushPrefix(prefix string, visibleWidth int) {
	renderer.prefixStack = append(renderer.prefixStack, prefix)
	renderer.linePrefix += prefix
	renderer.linePrefixWidth += visibleWidth
}

func (renderer *markdownRenderer) popPrefix() {
	if len(renderer.prefixStack) == 0 {
		return
	}
	top := renderer.prefixStack[len(renderer.prefixStack)-1]
	renderer.prefixStack = renderer.prefixStack[:len(renderer.prefixStack)-1]
	renderer.linePrefix = renderer.linePrefix[:len(renderer.linePrefix)-len(top)]
	renderer.linePrefixWidth -= ansi.StringWidth(top)
}

func (renderer *markdownRenderer) inTightList() bool {
	if len(renderer.listStack) == 0 {
		return false
	}
	return renderer.listStack[len(renderer.listStack)-1].tight
}

func (renderer *markdownRenderer) writeOutput(s string) {
	if s == "" {
		return
	}
	renderer.output.WriteString(s)

	newTrailing := 0
	entirelyNewlines := true
	for index := len(s) - 1; index >= 0; index-- {
		if s[index] == '\n' {
			newTrailing++
		} else {
			entirelyNewlines = false
			break
		}
	}
	if entirelyNewlines {
		renderer.trailingNewlines += newTrailing
	} else {
		renderer.trailingNewlines = newTrailing
	}
}

func (renderer *markdownRenderer) ensureNewline() {
	if renderer.trailingNewlines < 1 {
		renderer.writeOutput("\n")
	}
}

func (renderer *markdownRenderer) ensureBlankLine() {
	for renderer.trailingNewlines < 2 {
		renderer.writeOutput("\n")
	}
}

func (renderer *markdownRenderer) consumeLinePrefix() string {
	if renderer.pendingBullet != "" {
		bullet := renderer.pendingBullet
		renderer.pendingBullet = ""
		return bullet
	}
	return renderer.linePrefix
}

func (renderer *markdownRenderer) applyPrefixes(content string) string {
	lines := strings.Split(content, "\n")
	var result strings.Builder
	for index, line := range lines {
		if index == 0 {
			result.WriteString(renderer.consumeLinePrefix())
		} else {
			result.WriteString(renderer.linePrefix)
		}
		result.WriteString(line)
		if index < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

func (renderer *markdownRenderer) flushInline() string {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if content == "" {
		return ""
	}
	content = ansi.Wrap(content, renderer.currentWidth(), " ,.;-+|")
	return renderer.applyPrefixes(content)
}

func (renderer *markdownRenderer) styledText(content string) string {
	style := renderer.newStyle().Foreground(renderer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	if renderer.strikethroughCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// renderInlineContent collects a node's children into a string,
// saving and restoring the inline buffer and style counters so the
// caller's context survives.
func (renderer *markdownRenderer) renderInlineContent(node ast.Node) string {
	savedInline := renderer.inline.String()
	savedBold := renderer.boldCount
	savedItalic := renderer.italicCount
	savedStrikethrough := renderer.strikethroughCount

	renderer.inline.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, renderer.walk)
	}
	result := renderer.inline.String()

	renderer.inline.Reset()
	renderer.inline.WriteString(savedInline)
	renderer.boldCount = savedBold
	renderer.italicCount = savedItalic
	renderer.strikethroughCount = savedStrikethrough

	return result
}

// highlightCode runs Chroma over a code block. Unknown languages and
// Chroma errors fall back to FaintText-styled plain text.
func (renderer *markdownRenderer) highlightCode(code, language string) string {
	if language == "" {
		return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(code)
	}
	return buffer.String()
}

func (renderer *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			renderer.inline.Reset()
		} else {
			flushed := renderer.flushInline()
			if flushed != "" {
				renderer.writeOutput(flushed)
				renderer.ensureNewline()
				if !renderer.inTightList() {
					renderer.ensureBlankLine()
				}
			}
		}

	case ast.KindHeading:
		if entering {
			renderer.inline.Reset()
		} else {
			renderer.leaveHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			renderer.renderFencedCodeBlock(node.(*ast.FencedCodeBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			renderer.renderCodeBlock(node.(*ast.CodeBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			renderer.pushPrefix("│ ", 2)
		} else {
			renderer.popPrefix()
			renderer.ensureBlankLine()
		}

	case ast.KindList:
		if entering {
			renderer.enterList(node.(*ast.List))
		} else {
			renderer.leaveList()
		}

	case ast.KindListItem:
		if entering {
			renderer.enterListItem()
		} else {
			renderer.leaveListItem()
		}

	case ast.KindThematicBreak:
		if entering {
			renderer.renderThematicBreak()
		}

	case ast.KindText:
		if entering {
			renderer.handleText(node.(*ast.Text))
		}

	case ast.KindString:
		if entering {
			str := node.(*ast.String)
			renderer.inline.WriteString(renderer.styledText(string(str.Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			renderer.boldCount += delta
		} else {
			renderer.italicCount += delta
		}

	case ast.KindCodeSpan:
		if entering {
			renderer.renderCodeSpan(node)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			displayText := renderer.renderInlineContent(node)
			renderer.inline.WriteString(displayText)
			if url := string(node.(*ast.Link).Destination); url != "" {
				urlStyle := renderer.newStyle().Foreground(renderer.theme.FaintText)
				renderer.inline.WriteString(" " + urlStyle.Render("("+url+")"))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(renderer.source))
			urlStyle := renderer.newStyle().Foreground(renderer.theme.FaintText)
			renderer.inline.WriteString(urlStyle.Render(url))
		}

	case extast.KindStrikethrough:
		if entering {
			renderer.strikethroughCount++
		} else {
			renderer.strikethroughCount--
		}
	}

	return ast.WalkContinue, nil
}

func (renderer *markdownRenderer) leaveHeading(heading *ast.Heading) {
	// The heading has its own style; drop the NormalText styling the
	// inline walk applied.
	content := ansi.Strip(renderer.inline.String())
	renderer.inline.Reset()
	if content == "" {
		return
	}

	style := renderer.newStyle().Bold(true)
	if heading.Level <= 2 {
		style = style.Foreground(renderer.theme.HeaderForeground)
	} else {
		style = style.Foreground(renderer.theme.NormalText)
	}

	wrapped := ansi.Wrap(style.Render(content), renderer.currentWidth(), " ,.;-+|")
	renderer.ensureBlankLine()
	renderer.writeOutput(renderer.applyPrefixes(wrapped))
	renderer.ensureNewline()
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) codeBlockText(node ast.Node) string {
	var code strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(renderer.source))
	}
	return code.String()
}

func (renderer *markdownRenderer) renderFencedCodeBlock(node *ast.FencedCodeBlock) {
	language := string(node.Language(renderer.source))
	highlighted := renderer.highlightCode(renderer.codeBlockText(node), language)

	renderer.ensureBlankLine()
	for _, line := range strings.Split(strings.TrimRight(highlighted, "\n"), "\n") {
		renderer.writeOutput(renderer.consumeLinePrefix() + line)
		renderer.ensureNewline()
	}
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) renderCodeBlock(node *ast.CodeBlock) {
	faint := renderer.newStyle().Foreground(renderer.theme.FaintText)

	renderer.ensureBlankLine()
	for _, line := range strings.Split(strings.TrimRight(renderer.codeBlockText(node), "\n"), "\n") {
		renderer.writeOutput(renderer.consumeLinePrefix() + faint.Render(line))
		renderer.ensureNewline()
	}
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) enterList(list *ast.List) {
	startNumber := 0
	if list.IsOrdered() {
		startNumber = list.Start
	}
	renderer.listStack = append(renderer.listStack, listState{
		ordered: list.IsOrdered(),
		counter: startNumber,
		tight:   list.IsTight,
	})
}

func (renderer *markdownRenderer) leaveList() {
	if len(renderer.listStack) > 0 {
		renderer.listStack = renderer.listStack[:len(renderer.listStack)-1]
	}
	if !renderer.inTightList() {
		renderer.ensureBlankLine()
	}
}

func (renderer *markdownRenderer) enterListItem() {
	if len(renderer.listStack) == 0 {
		return
	}
	top := &renderer.listStack[len(renderer.listStack)-1]

	var bullet string
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	} else {
		bullet = "- "
	}

	bulletWidth := len(bullet) // ASCII bullets: byte length == width.
	renderer.pendingBullet = renderer.linePrefix + bullet
	renderer.pushPrefix(strings.Repeat(" ", bulletWidth), bulletWidth)
}

func (renderer *markdownRenderer) leaveListItem() {
	renderer.popPrefix()
	if !renderer.inTightList() {
		renderer.ensureBlankLine()
	} else {
		renderer.ensureNewline()
	}
}

func (renderer *markdownRenderer) renderThematicBreak() {
	rule := strings.Repeat("─", renderer.currentWidth())
	ruleStyle := renderer.newStyle().Foreground(renderer.theme.BorderColor)
	renderer.ensureBlankLine()
	renderer.writeOutput(renderer.applyPrefixes(ruleStyle.Render(rule)))
	renderer.ensureNewline()
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) handleText(node *ast.Text) {
	value := string(node.Segment.Value(renderer.source))
	renderer.inline.WriteString(renderer.styledText(value))

	if node.SoftLineBreak() {
		// Soft breaks become spaces so hard-wrapped source reflows
		// at the current terminal width.
		renderer.inline.WriteString(" ")
	}
	if node.HardLineBreak() {
		renderer.inline.WriteString("\n")
	}
}

func (renderer *markdownRenderer) renderCodeSpan(node ast.Node) {
	var code strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Text:
			code.Write(child.Segment.Value(renderer.source))
		case *ast.String:
			code.Write(child.Value)
		}
	}
	codeStyle := renderer.newStyle().Foreground(renderer.theme.FaintText)
	renderer.inline.WriteString(codeStyle.Render(code.String()))
}
