package charts

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var textColor = color("#333333")

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

// newCanvas returns a blank SVG renderer with the default font loaded.
func newCanvas(size Size) (chart.Renderer, error) {
	r, err := chart.SVG(size.Width, size.Height)
	if err != nil {
		return nil, fmt.Errorf("creating svg renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("loading font: %w", err)
	}
	r.SetFont(font)
	rect(r, 0, 0, size.Width, size.Height, drawing.ColorWhite)
	return r, nil
}

func rect(r chart.Renderer, x, y, w, h int, fill drawing.Color) {
	r.SetFillColor(fill)
	r.SetStrokeColor(fill)
	r.SetStrokeWidth(0)
	r.MoveTo(x, y)
	r.LineTo(x+w, y)
	r.LineTo(x+w, y+h)
	r.LineTo(x, y+h)
	r.Close()
	r.FillStroke()
}

func label(r chart.Renderer, text string, x, y int, a align) {
	r.SetFontColor(textColor)
	r.SetFontSize(10)
	box := r.MeasureText(text)
	switch a {
	case alignCenter:
		x -= box.Width() / 2
	case alignRight:
		x -= box.Width()
	}
	r.Text(text, x, y+box.Height()/2)
}

func title(r chart.Renderer, size Size, text string) {
	r.SetFontColor(textColor)
	r.SetFontSize(14)
	box := r.MeasureText(text)
	r.Text(text, (size.Width-box.Width())/2, 24)
}

// Blank draws an empty panel with a title and a "No data" note. It is the
// fallback for every chart that cannot be drawn.
func Blank(size Size, heading string) []byte {
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultSize
	}
	r, err := newCanvas(size)
	if err != nil {
		return plainBlank(size)
	}
	if heading != "" {
		title(r, size, heading)
	}
	label(r, "No data", size.Width/2, size.Height/2, alignCenter)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return plainBlank(size)
	}
	return buf.Bytes()
}

func plainBlank(size Size) []byte {
	return []byte(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"></svg>`, size.Width, size.Height))
}
