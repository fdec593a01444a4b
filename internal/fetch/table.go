package fetch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTable is returned by ExtractTable when the document holds no table with headers.
var ErrNoTable = errors.New("no table found")

// Table is the raw content of an HTML table: header labels in document order and
// body rows of trimmed cell text. Rows may be shorter or longer than Headers.
type Table struct {
	SourceURL string
	Headers   []string
	Rows      [][]string
}

// ExtractTable parses html and returns the first table in the document.
// Header labels come from the table's thead cells; when there is no thead, the
// first row's th cells are used instead. Body rows are the td cells of every
// remaining row.
func ExtractTable(html string) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	tableSel := doc.Find("table").First()
	if tableSel.Length() == 0 {
		return nil, ErrNoTable
	}

	headers := cellTexts(tableSel.Find("thead th"))
	if len(headers) == 0 {
		// No thead: treat the first row of th cells as the header row.
		tableSel.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			if th := tr.ChildrenFiltered("th"); th.Length() > 0 {
				headers = cellTexts(th)
				return false
			}
			return true
		})
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: table has no header cells", ErrNoTable)
	}

	var rows [][]string
	tableSel.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return
		}
		rows = append(rows, cellTexts(cells))
	})

	return &Table{
		Headers: headers,
		Rows:    rows,
	}, nil
}

func cellTexts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
