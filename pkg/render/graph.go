package render

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/reliefplan/pkg/metrics"
)

var (
	colorBackdrop = color.RGBA{0xf9, 0xf9, 0xff, 0xff}
	colorEdge     = color.RGBA{0xbf, 0xbf, 0xf5, 0xff}
	colorRoute    = color.RGBA{0x6b, 0x5f, 0xd3, 0xff}
	colorStroke   = color.RGBA{0x61, 0x56, 0xb0, 0xff}
	colorLabel    = color.RGBA{0x2a, 0x1b, 0x6f, 0xff}
	colorCaption  = color.RGBA{0x44, 0x44, 0x44, 0xff}

	// Pastel fills indexed by slot-1.
	palette = []color.RGBA{
		{0xc7, 0xbe, 0xf4, 0xff},
		{0xa8, 0xf0, 0xcc, 0xff},
		{0xf7, 0xd9, 0xba, 0xff},
		{0xa8, 0xd8, 0xf0, 0xff},
		{0xf4, 0xbe, 0xd0, 0xff},
		{0xc2, 0xeb, 0xad, 0xff},
	}
)

// Format is an output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" or "png" in any case, with or without a dot.
// Empty means SVG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want svg or png)", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Write renders l in format f.
func Write(w io.Writer, l *Layout, f Format) error {
	defer metrics.Timer(metrics.GraphRender)()
	switch f {
	case FormatPNG:
		return PNG(w, l)
	case FormatSVG, "":
		return SVG(w, l)
	default:
		return fmt.Errorf("unhandled format %q", f)
	}
}

// FormatForPath picks the format from the file extension. A path without
// one gets ".svg" appended.
func FormatForPath(path string) (string, Format, error) {
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return path, FormatSVG, nil
	case ".png":
		return path, FormatPNG, nil
	case "":
		return path + ".svg", FormatSVG, nil
	default:
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", filepath.Ext(path))
	}
}

// Save writes l to path. The format comes from the extension; a path with
// no extension gets ".svg" appended.
func Save(path string, l *Layout) (string, error) {
	path, format, err := FormatForPath(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create parent dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	if err := Write(bw, l, format); err != nil {
		return "", err
	}
	if err := bw.Flush(); err != nil {
		return "", err
	}
	return path, file.Close()
}

// SVG renders l as an SVG document.
func SVG(w io.Writer, l *Layout) error {
	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	if l.Title != "" {
		canvas.Title(l.Title)
	}
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	for _, e := range l.Edges {
		a, b := l.Nodes[e.From], l.Nodes[e.To]
		canvas.Line(int(a.X), int(a.Y), int(b.X), int(b.Y),
			fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorEdge)))
	}
	if len(l.Highlight) > 0 {
		canvas.Gid("route")
		for _, e := range l.Highlight {
			a, b := l.Nodes[e.From], l.Nodes[e.To]
			canvas.Line(int(a.X), int(a.Y), int(b.X), int(b.Y),
				fmt.Sprintf("stroke:%s;stroke-width:3", css(colorRoute)))
		}
		canvas.Gend()
	}

	for _, n := range l.Nodes {
		x, y := int(n.X), int(n.Y)
		canvas.Circle(x, y, int(nodeRadius),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", SlotColor(n.Slot), css(colorStroke)))
		canvas.Text(x, y+5, n.Label,
			fmt.Sprintf("fill:%s;font-size:15px;font-family:sans-serif;text-anchor:middle", css(colorLabel)))
		if l.Colored {
			canvas.Text(x, y+24+4, fmt.Sprintf("Slot %d", n.Slot),
				fmt.Sprintf("fill:%s;font-size:13px;font-family:sans-serif;text-anchor:middle", css(colorCaption)))
		}
	}

	canvas.End()
	return nil
}

// PNG renders l as a PNG image.
func PNG(w io.Writer, l *Layout) error {
	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorEdge)
	dc.SetLineWidth(1.5)
	for _, e := range l.Edges {
		a, b := l.Nodes[e.From], l.Nodes[e.To]
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.Stroke()
	}

	dc.SetColor(colorRoute)
	dc.SetLineWidth(3)
	for _, e := range l.Highlight {
		a, b := l.Nodes[e.From], l.Nodes[e.To]
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.Stroke()
	}

	for _, n := range l.Nodes {
		dc.SetColor(palette[(max(n.Slot, 1)-1)%len(palette)])
		dc.DrawCircle(n.X, n.Y, nodeRadius)
		dc.Fill()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(2)
		dc.DrawCircle(n.X, n.Y, nodeRadius)
		dc.Stroke()

		dc.SetColor(colorLabel)
		dc.DrawStringAnchored(n.Label, n.X, n.Y, 0.5, 0.5)
		if l.Colored {
			dc.SetColor(colorCaption)
			dc.DrawStringAnchored(fmt.Sprintf("Slot %d", n.Slot), n.X, n.Y+24, 0.5, 0.5)
		}
	}

	return dc.EncodePNG(w)
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
