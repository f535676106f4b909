package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/wikiscan/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. <hr> starts a new scan page, h1-h6 become
// section titles and the <title> element names the document.
type HTMLParser struct {
	TitleOpen string
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	src := &doctree.Source{Title: titleFromFilename(filename)}
	if title := findTitle(doc); title != "" {
		src.Title = title
	}

	w := &pageWriter{titleOpen: p.TitleOpen}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if headingLevel(n.Data) > 0 {
				w.heading(textContent(n))
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "hr":
				w.pageBreak()
				return
			case "p", "li", "td", "blockquote", "pre":
				w.paragraph(textContent(n))
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	src.Pages = w.finish()
	return src, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
