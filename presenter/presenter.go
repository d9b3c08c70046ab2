// Package presenter renders qualifying listings in the terminal and owns
// the filters that only make sense for display.
package presenter

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fipe-garimpo/models"
	"fipe-garimpo/pipeline"
)

// State is what the presenter is currently showing.
type State int

const (
	Loading State = iota
	NoResults
	Results
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case NoResults:
		return "no results"
	case Results:
		return "results"
	default:
		return "unknown"
	}
}

// StateOf maps a run phase and the number of rows left after filtering to
// a display state.
func StateOf(phase pipeline.Phase, rows int) State {
	if phase != pipeline.Completed {
		return Loading
	}
	if rows == 0 {
		return NoResults
	}
	return Results
}

// Row is a qualifying listing plus presenter-only data.
type Row struct {
	models.QualifyingListing
	Mileage *int
}

// RowsFrom attaches mileage by detail URL where known.
func RowsFrom(listings []models.QualifyingListing, mileage map[string]int) []Row {
	rows := make([]Row, len(listings))
	for i, l := range listings {
		rows[i] = Row{QualifyingListing: l}
		if km, ok := mileage[l.DetailURL]; ok {
			rows[i].Mileage = &km
		}
	}
	return rows
}

// Filters are optional upper bounds; zero disables a bound. Rows with
// unknown mileage are not dropped by MaxMileage.
type Filters struct {
	MaxPrice   int
	MaxMileage int
}

func (f Filters) Apply(rows []Row) []Row {
	return slices.DeleteFunc(slices.Clone(rows), func(r Row) bool {
		if f.MaxPrice > 0 && r.ListPrice > f.MaxPrice {
			return true
		}
		return f.MaxMileage > 0 && r.Mileage != nil && *r.Mileage > f.MaxMileage
	})
}

type Presenter struct {
	out io.Writer
}

func New(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

func (p *Presenter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

var brl = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders whole reais, e.g. "R$ 45.000".
func FormatBRL(n int) string {
	return brl.Sprintf("R$ %d", n)
}

// Render draws the listing view for state. rows are ignored unless state
// is Results.
func (p *Presenter) Render(state State, threshold int, rows []Row) {
	switch state {
	case Loading:
		fmt.Fprintln(p.out, text.FgYellow.Sprint("⏳ Buscando anúncios e consultando a tabela FIPE..."))
		return
	case NoResults:
		fmt.Fprintln(p.out, text.FgHiBlack.Sprintf("Nenhum anúncio com margem ≥ %s.", FormatBRL(threshold)))
		return
	}

	showMileage := slices.ContainsFunc(rows, func(r Row) bool { return r.Mileage != nil })

	t := p.newTable()
	t.SetTitle("Margem ≥ %s", FormatBRL(threshold))

	header := table.Row{"#", "Anúncio", "Preço", "FIPE", "Margem"}
	if showMileage {
		header = append(header, "Km")
	}
	header = append(header, "Link")
	t.AppendHeader(header)

	for i, r := range rows {
		row := table.Row{i + 1, truncate(r.Title, 40), FormatBRL(r.ListPrice), FormatBRL(*r.ReferencePrice),
			text.FgGreen.Sprint(FormatBRL(r.Margin))}
		if showMileage {
			km := "-"
			if r.Mileage != nil {
				km = brl.Sprintf("%d", *r.Mileage)
			}
			row = append(row, km)
		}
		row = append(row, r.DetailURL)
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d anúncios", len(rows))})
	t.Render()
}

// RenderSummary prints aggregate figures for a qualifying set.
func (p *Presenter) RenderSummary(s *models.Summary) {
	if s == nil || s.TotalListings == 0 {
		return
	}

	t := p.newTable()
	t.SetTitle("Resumo")
	t.AppendRows([]table.Row{
		{"Anúncios", s.TotalListings},
		{"Margem média", FormatBRL(int(s.AverageMargin))},
		{"Margem mínima", FormatBRL(s.MinMargin)},
		{"Margem máxima", FormatBRL(s.MaxMargin)},
		{"Desconto médio", fmt.Sprintf("%.2f%%", s.AverageDiscount)},
	})
	if s.BestDeal != nil {
		t.AppendRow(table.Row{"Melhor oferta", truncate(s.BestDeal.Title, 40)})
	}
	t.Render()

	if len(s.ListingsByBrand) == 0 {
		return
	}

	type brandCount struct {
		brand string
		count int
	}
	var brands []brandCount
	for b, c := range s.ListingsByBrand {
		brands = append(brands, brandCount{b, c})
	}
	slices.SortFunc(brands, func(a, b brandCount) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return strings.Compare(a.brand, b.brand)
	})

	bt := p.newTable()
	bt.AppendHeader(table.Row{"Marca", "Anúncios", ""})
	for _, b := range brands {
		bt.AppendRow(table.Row{b.brand, b.count, strings.Repeat("█", b.count)})
	}
	bt.Render()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
