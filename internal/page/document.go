package page

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/speedwagon-io/plantdash/internal/refresh"
)

// Options says where rows and their cells live in the markup.
type Options struct {
	RowsTable   string
	RowAttr     string
	CellClasses map[refresh.Field]string
}

func DefaultOptions() Options {
	return Options{
		RowsTable: "care-guidelines",
		RowAttr:   "data-pot-id",
		CellClasses: map[refresh.Field]string{
			refresh.FieldTemperature:  "val-temp",
			refresh.FieldAirHumidity:  "val-air",
			refresh.FieldSoilMoisture: "val-soil",
		},
	}
}

type rowNode struct {
	row   refresh.Row
	cells map[refresh.Field]*html.Node
}

// Document is a parsed dashboard page that refreshers write into.
type Document struct {
	mu      sync.Mutex
	root    *html.Node
	regions map[string]*html.Node
	rows    []rowNode
}

func ParseFile(path string, opts Options) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	return Parse(f, opts)
}

func Parse(r io.Reader, opts Options) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	d := &Document{
		root:    root,
		regions: make(map[string]*html.Node),
	}
	d.index(opts)

	return d, nil
}

func (d *Document) index(opts Options) {
	var table *html.Node

	walk(d.root, func(n *html.Node) {
		id, ok := attr(n, "id")
		if !ok || id == "" {
			return
		}
		if _, seen := d.regions[id]; !seen {
			d.regions[id] = n
		}
		if table == nil && id == opts.RowsTable {
			table = n
		}
	})

	if table == nil {
		return
	}

	walk(table, func(n *html.Node) {
		if n.DataAtom != atom.Tbody {
			return
		}
		walk(n, func(tr *html.Node) {
			if tr.DataAtom != atom.Tr {
				return
			}
			entityID, _ := attr(tr, opts.RowAttr)
			rn := rowNode{
				row:   refresh.Row{Index: len(d.rows), EntityID: entityID},
				cells: make(map[refresh.Field]*html.Node, len(opts.CellClasses)),
			}
			for field, class := range opts.CellClasses {
				if cell := first(tr, func(c *html.Node) bool { return hasClass(c, class) }); cell != nil {
					rn.cells[field] = cell
				}
			}
			d.rows = append(d.rows, rn)
		})
	})
}

func (d *Document) HasRegion(regionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.regions[regionID]
	return ok
}

// WriteRegion replaces the region's children with content parsed as markup.
func (d *Document) WriteRegion(regionID, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.regions[regionID]
	if !ok {
		return
	}

	nodes, err := html.ParseFragment(strings.NewReader(content), n)
	if err != nil {
		nodes = []*html.Node{{Type: html.TextNode, Data: content}}
	}

	clearChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
}

func (d *Document) Rows() []refresh.Row {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]refresh.Row, 0, len(d.rows))
	for _, rn := range d.rows {
		out = append(out, rn.row)
	}
	return out
}

// WriteCell sets the cell's text content.
func (d *Document) WriteCell(row refresh.Row, field refresh.Field, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if row.Index < 0 || row.Index >= len(d.rows) {
		return
	}
	cell, ok := d.rows[row.Index].cells[field]
	if !ok {
		return
	}

	clearChildren(cell)
	cell.AppendChild(&html.Node{Type: html.TextNode, Data: value})
}

// RegionHTML renders the current children of a region.
func (d *Document) RegionHTML(regionID string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.regions[regionID]
	if !ok {
		return ""
	}

	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}

func (d *Document) CellText(row refresh.Row, field refresh.Field) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if row.Index < 0 || row.Index >= len(d.rows) {
		return ""
	}
	cell, ok := d.rows[row.Index].cells[field]
	if !ok {
		return ""
	}
	return text(cell)
}

func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// first finds the first element below n, in document order, matching pred.
func first(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && pred(c) {
			return c
		}
		if found := first(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

func text(n *html.Node) string {
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
