// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// The goldmark instance is configured once; Parse and Convert create
// per-call state and are safe for concurrent use.
var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func markdownEngine() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// ScheduleRows returns the number of data rows of every GFM table in the
// markdown source, in document order. Header rows are not counted.
func ScheduleRows(source string) []int {
	if source == "" {
		return nil
	}
	src := []byte(source)
	doc := markdownEngine().Parser().Parse(text.NewReader(src))

	var rows []int
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != extast.KindTable {
			return ast.WalkContinue, nil
		}
		count := 0
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if c.Kind() == extast.KindTableRow {
				count++
			}
		}
		rows = append(rows, count)
		return ast.WalkSkipChildren, nil
	})
	return rows
}

// CountRows sums per-table row counts.
func CountRows(rows []int) int {
	total := 0
	for _, r := range rows {
		total += r
	}
	return total
}

// HTMLTableRows counts the table rows in an HTML document that hold at least
// one <td> cell, which excludes header rows made only of <th>.
func HTMLTableRows(document string) int {
	z := html.NewTokenizer(strings.NewReader(document))

	count := 0
	inRow, rowHasData := false, false
	flush := func() {
		if inRow && rowHasData {
			count++
		}
		inRow, rowHasData = false, false
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the document is done.
			flush()
			return count
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "tr":
				flush()
				inRow = true
			case "td":
				if inRow {
					rowHasData = true
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "tr", "table", "tbody", "thead":
				flush()
			}
		}
	}
}

// ScheduleTableRows counts the data rows of the schedule in an HTML report.
// The schedule is the element with id="schedule" when one exists, otherwise
// every table between the first "Project Schedule" heading and the next
// heading of the same or a higher level. Documents with neither are counted
// like HTMLTableRows.
func ScheduleTableRows(document string) int {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return HTMLTableRows(document)
	}
	if sec := findByID(root, "schedule"); sec != nil {
		return dataRows(sec)
	}

	var (
		count, level int
		found        bool
	)
	var walk func(n *html.Node) (stop bool)
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if l := headingLevel(n); l > 0 {
				switch {
				case !found && strings.Contains(strings.ToLower(nodeText(n)), "project schedule"):
					found, level = true, l
				case found && l <= level:
					return true
				}
				return false
			}
			if n.DataAtom == atom.Table {
				if found {
					count += dataRows(n)
				}
				return false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)

	if !found {
		return HTMLTableRows(document)
	}
	return count
}

// dataRows counts the <tr> elements under n that have a <td> child.
func dataRows(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == atom.Tr {
			if hasChildElement(c, atom.Td) {
				count++
			}
			continue
		}
		count += dataRows(c)
	}
	return count
}

func hasChildElement(n *html.Node, a atom.Atom) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return true
		}
	}
	return false
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func headingLevel(n *html.Node) int {
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}
