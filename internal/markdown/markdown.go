// Package markdown renders markdown bodies to HTML with goldmark and exposes
// the structure the site assembler needs: headings with ids, the page title
// and the links the body contains.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Heading is a rendered heading with its generated anchor id.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Result is the outcome of rendering one markdown body.
type Result struct {
	HTML     []byte
	Title    string
	Headings []Heading
	Links    []Link
	// Unresolved lists markdown file links the resolver could not map to a route.
	Unresolved []string
}

func newGoldmark() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// Render parses body, rewrites markdown file links through opts.ResolveLink
// and renders HTML.
func Render(body []byte, opts Options) (*Result, error) {
	md := newGoldmark()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	res := &Result{}
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			h := Heading{Level: node.Level, Text: nodeText(node, body)}
			if id, ok := node.AttributeString("id"); ok {
				if b, ok := id.([]byte); ok {
					h.ID = string(b)
				}
			}
			if node.Level == 1 && res.Title == "" {
				res.Title = h.Text
			}
			res.Headings = append(res.Headings, h)
		case *gmast.Link:
			dest := string(node.Destination)
			if opts.ResolveLink != nil && IsMarkdownLink(dest) {
				if resolved, ok := opts.ResolveLink(dest); ok {
					node.Destination = []byte(resolved)
				} else {
					res.Unresolved = append(res.Unresolved, dest)
				}
			}
			res.Links = append(res.Links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		case *gmast.AutoLink:
			res.Links = append(res.Links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			res.Links = append(res.Links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, body, root); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	res.HTML = buf.Bytes()
	return res, nil
}

// Title returns the text of the first level-1 heading of body, if any.
func Title(body []byte) string {
	root := newGoldmark().Parser().Parse(text.NewReader(body))
	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if h, ok := n.(*gmast.Heading); ok && entering && h.Level == 1 {
			title = nodeText(h, body)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// FilterHeadings returns the headings with min <= level <= max, in document order.
func FilterHeadings(headings []Heading, minLevel, maxLevel int) []Heading {
	var out []Heading
	for _, h := range headings {
		if h.Level >= minLevel && h.Level <= maxLevel && h.ID != "" {
			out = append(out, h)
		}
	}
	return out
}

func nodeText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
