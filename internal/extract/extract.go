// Package extract turns uploaded files into plain text ready for chunking.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	// ErrUnsupportedFormat is returned for file extensions that cannot be extracted.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrInvalidEncoding is returned for content that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid text encoding")
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Supported reports whether filename has an extension PlainText understands.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// PlainText extracts the text of a .txt or markdown file.
// Markdown blocks are separated by blank lines; markup is dropped.
func PlainText(filename string, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%s: %w", filename, ErrInvalidEncoding)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return string(content), nil
	case ".md", ".markdown":
		return markdownText(content), nil
	default:
		return "", fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
	}
}

// markdownText walks the markdown AST and collects one string per text block.
func markdownText(content []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(content))

	var blocks []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			blocks = append(blocks, s)
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			add(inlineText(node, content))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			add(linesText(node, content))
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		case *extast.TableHeader, *extast.TableRow:
			add(tableRowText(node, content))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(blocks, "\n\n")
}

// inlineText concatenates the inline text under n. Soft line breaks become spaces.
func inlineText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			switch {
			case v.HardLineBreak():
				b.WriteByte('\n')
			case v.SoftLineBreak():
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.Label(content))
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func linesText(n ast.Node, content []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(content))
	}
	return b.String()
}

// tableRowText joins a row's cells with " | ".
func tableRowText(row ast.Node, content []byte) string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*extast.TableCell); ok {
			cells = append(cells, strings.TrimSpace(inlineText(c, content)))
		}
	}
	return strings.Join(cells, " | ")
}
