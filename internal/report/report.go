// Package report shapes normalized observations into display rows and
// headline figures for the dashboard and the CLI.
package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/couchcryptid/wu-history-viewer/internal/domain"
)

// Column describes one numeric table column.
type Column struct {
	Header string
	Digits int
	value  func(domain.Observation) *float64
}

// Columns lists the numeric columns in display order, after the time column.
var Columns = []Column{
	{Header: "Temp (°C)", Digits: 2, value: func(o domain.Observation) *float64 { return o.Temperature }},
	{Header: "Dew point (°C)", Digits: 2, value: func(o domain.Observation) *float64 { return o.DewPoint }},
	{Header: "Humidity (%)", Digits: 0, value: func(o domain.Observation) *float64 { return o.Humidity }},
	{Header: "Pressure (hPa)", Digits: 1, value: func(o domain.Observation) *float64 { return o.Pressure }},
	{Header: "Wind (km/h)", Digits: 1, value: func(o domain.Observation) *float64 { return o.WindSpeed }},
	{Header: "Gust (km/h)", Digits: 1, value: func(o domain.Observation) *float64 { return o.WindGust }},
	{Header: "Dir (°)", Digits: 0, value: func(o domain.Observation) *float64 { return o.WindDirection }},
	{Header: "Precip rate (mm/h)", Digits: 2, value: func(o domain.Observation) *float64 { return o.PrecipRate }},
	{Header: "Precip total (mm)", Digits: 2, value: func(o domain.Observation) *float64 { return o.PrecipTotal }},
	{Header: "UV", Digits: 1, value: func(o domain.Observation) *float64 { return o.UVIndex }},
	{Header: "Radiation (W/m²)", Digits: 0, value: func(o domain.Observation) *float64 { return o.SolarRadiation }},
}

// TimeHeader is the header of the leading time column.
const TimeHeader = "Time"

// Row is one rendered table line.
type Row struct {
	Time  string
	Cells []string
}

// KPIs are the rendered headline figures.
type KPIs struct {
	Count   string
	MinTemp string
	MaxTemp string
}

// Table is everything the table view needs.
type Table struct {
	Headers []string
	Rows    []Row
	KPIs    KPIs
}

// Formatter renders numbers for one locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a Formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// ParseLocale parses a BCP 47 locale such as "es" or "en-GB".
func ParseLocale(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("parse locale %q: %w", s, err)
	}
	return tag, nil
}

// Value renders v with a fixed number of decimals and the locale's decimal
// mark, without thousands grouping, or the placeholder.
func (f *Formatter) Value(v *float64, digits int) string {
	if v == nil {
		return domain.Placeholder
	}
	return f.printer.Sprint(number.Decimal(*v, number.Scale(digits), number.NoSeparator()))
}

// Build renders observations into table rows and computes the KPIs.
func (f *Formatter) Build(observations []domain.Observation) Table {
	headers := make([]string, 0, len(Columns)+1)
	headers = append(headers, TimeHeader)
	for _, c := range Columns {
		headers = append(headers, c.Header)
	}

	rows := make([]Row, 0, len(observations))
	for _, ob := range observations {
		cells := make([]string, len(Columns))
		for i, c := range Columns {
			cells[i] = f.Value(c.value(ob), c.Digits)
		}
		rows = append(rows, Row{Time: ob.WhenLocal, Cells: cells})
	}

	return Table{
		Headers: headers,
		Rows:    rows,
		KPIs:    f.KPIs(domain.Summarize(observations)),
	}
}

// KPIs renders a summary. An empty table shows the placeholder as count.
func (f *Formatter) KPIs(s domain.Summary) KPIs {
	count := domain.Placeholder
	if s.Count > 0 {
		count = strconv.Itoa(s.Count)
	}
	return KPIs{
		Count:   count,
		MinTemp: f.Value(s.MinTemp, 2),
		MaxTemp: f.Value(s.MaxTemp, 2),
	}
}

// WriteText prints the table as aligned plain text followed by the KPIs.
func WriteText(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	writeLine(tw, t.Headers)
	for _, r := range t.Rows {
		writeLine(tw, append([]string{r.Time}, r.Cells...))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	_, err := fmt.Fprintf(w, "\nRows: %s  Min temp: %s  Max temp: %s\n", t.KPIs.Count, t.KPIs.MinTemp, t.KPIs.MaxTemp)
	return err
}

func writeLine(w io.Writer, cells []string) {
	for _, c := range cells {
		fmt.Fprint(w, c, "\t")
	}
	fmt.Fprintln(w)
}
