package render

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/meleemajors/meleemajors/internal/placeholder"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

// Template file names inside the HTML template directory.
const (
	HeaderFile = "header.html"
	CardFile   = "templateCard.html"
	FooterFile = "footer.html"
)

// Page holds the three page templates.
type Page struct {
	Header       string
	CardTemplate string
	Footer       string
}

// LoadPage reads the page templates from dir and rejects placeholders that no
// record field can fill.
func LoadPage(dir string) (*Page, error) {
	p := &Page{}
	for _, t := range []struct {
		file string
		dst  *string
	}{
		{HeaderFile, &p.Header},
		{CardFile, &p.CardTemplate},
		{FooterFile, &p.Footer},
	} {
		data, err := os.ReadFile(filepath.Join(dir, t.file))
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}
		*t.dst = string(data)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks every template against the record field names.
func (p *Page) Validate() error {
	known := tournament.FieldNames()
	for file, tmpl := range map[string]string{HeaderFile: p.Header, CardFile: p.CardTemplate, FooterFile: p.Footer} {
		if err := placeholder.Validate(tmpl, known); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
	return nil
}

// Card renders one tournament card.
func (p *Page) Card(r *tournament.Record) (string, error) {
	return placeholder.Substitute(EscapedFields(r), p.CardTemplate)
}

// Document renders the full page: the header (filled from the first record),
// every card in order, then the footer.
func (p *Page) Document(records []*tournament.Record) (string, error) {
	cards := make([]string, 0, len(records))
	for _, r := range records {
		card, err := p.Card(r)
		if err != nil {
			return "", fmt.Errorf("card %s: %w", r.Slug, err)
		}
		cards = append(cards, card)
	}
	var first *tournament.Record
	if len(records) > 0 {
		first = records[0]
	}
	return p.Assemble(first, cards)
}

// Assemble joins already rendered cards between the header, filled from
// first, and the footer. With no first record the header fields are blank.
func (p *Page) Assemble(first *tournament.Record, cards []string) (string, error) {
	fields := blankFields()
	if first != nil {
		fields = EscapedFields(first)
	}
	header, err := placeholder.Substitute(fields, p.Header)
	if err != nil {
		return "", fmt.Errorf("header: %w", err)
	}

	var b strings.Builder
	b.WriteString(header)
	for _, card := range cards {
		b.WriteString(card)
	}
	b.WriteString("\n")
	b.WriteString(p.Footer)
	return b.String(), nil
}

// EscapedFields returns the record fields with string values HTML-escaped.
func EscapedFields(r *tournament.Record) map[string]any {
	fields := r.Fields()
	for k, v := range fields {
		if s, ok := v.(string); ok {
			fields[k] = html.EscapeString(s)
		}
	}
	return fields
}

func blankFields() map[string]any {
	fields := make(map[string]any)
	for _, name := range tournament.FieldNames() {
		fields[name] = ""
	}
	return fields
}
