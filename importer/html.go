package importer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML reads every <tr> of the document, skips opts.HeaderRows of them
// and maps the <td> cells through the layout's shape.
func ParseHTML(r io.Reader, opts Options) ([]Ingredient, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("read html table: %w", err)
	}
	rows := tableRows(doc)
	skip := opts.headerRows()
	if skip > len(rows) {
		skip = len(rows)
	}
	return walkRows(rows, skip, opts.Shape()), nil
}

// tableRows collects the text of each <td> under each <tr>, in document order.
func tableRows(doc *html.Node) [][]string {
	var rows [][]string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			rows = append(rows, rowCells(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return rows
}

func rowCells(tr *html.Node) []string {
	var cells []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Td {
			cells = append(cells, textContent(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}
	return cells
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}
