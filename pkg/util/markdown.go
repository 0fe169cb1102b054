// Package util provides common utility functions
package util

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// ParseFrontmatter extracts YAML frontmatter from content
// Returns the parsed YAML as a map, the body (content after frontmatter), and whether frontmatter exists
func ParseFrontmatter(content string) (yamlData map[string]interface{}, body string, hasFrontmatter bool) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, frontmatterDelimiter+"\n") {
		return nil, content, false
	}

	rest := content[len(frontmatterDelimiter)+1:]
	endIndex := strings.Index(rest, "\n"+frontmatterDelimiter)
	if endIndex == -1 {
		return nil, content, false
	}

	yamlContent := rest[:endIndex]
	body = strings.TrimPrefix(rest[endIndex+len("\n"+frontmatterDelimiter):], "\n")

	yamlData = make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(yamlContent), &yamlData); err != nil {
		// Unparseable YAML is kept as part of the body
		return nil, content, false
	}

	return yamlData, body, true
}

// FirstHeading returns the text of the first level-1 heading, or "".
func FirstHeading(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		if n.(*ast.Heading).Level == 1 {
			title = strings.TrimSpace(string(n.Text(source)))
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})
	return title
}

// MarkdownDocument is a Markdown file prepared for import.
type MarkdownDocument struct {
	Title   string
	Content string
}

// ParseMarkdownDocument derives the note title and body of a Markdown file.
// The title is taken from frontmatter "title", then the first H1, then the
// file name without extension. Frontmatter is stripped from the body.
func ParseMarkdownDocument(fileName, raw string) MarkdownDocument {
	meta, body, _ := ParseFrontmatter(raw)

	var title string
	if v, ok := meta["title"]; ok {
		if s, ok := v.(string); ok {
			title = strings.TrimSpace(s)
		}
	}
	if title == "" {
		title = FirstHeading(body)
	}
	if title == "" {
		base := filepath.Base(fileName)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return MarkdownDocument{Title: title, Content: body}
}
