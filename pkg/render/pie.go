package render

import (
	"fmt"
	"io"
	"math"

	"github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/reliefplan/pkg/metrics"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// DefaultPieTitle captions allocation charts.
const DefaultPieTitle = "Allocation by Weight Taken (kg)"

// AllocationPie draws one slice per row sized by WeightTaken, with a legend
// below. Rows with nothing taken get a legend entry but no slice.
func AllocationPie(w io.Writer, rows []model.AllocationRow, title string, opts Options) error {
	defer metrics.Timer(metrics.GraphRender)()

	if title == "" {
		title = DefaultPieTitle
	}
	width, _ := opts.size()
	const (
		top     = 40
		rowH    = 20
		padding = 10
	)
	radius := math.Min(float64(width)/2-padding*2, 150)
	cx := float64(width) / 2
	cy := top + radius
	legendTop := int(cy+radius) + 2*padding
	height := legendTop + rowH*len(rows) + padding

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#ffffff")
	canvas.Text(width/2, 24, title,
		fmt.Sprintf("fill:%s;font-size:15px;font-family:sans-serif;text-anchor:middle", css(colorLabel)))

	var total float64
	for _, r := range rows {
		if r.WeightTaken > 0 {
			total += r.WeightTaken
		}
	}

	if total > 0 {
		angle := -math.Pi / 2
		for i, r := range rows {
			if r.WeightTaken <= 0 {
				continue
			}
			share := r.WeightTaken / total
			style := fmt.Sprintf("fill:%s;stroke:#ffffff;stroke-width:1", SlotColor(i+1))
			if share >= 1 {
				canvas.Circle(int(cx), int(cy), int(radius), style)
				break
			}
			next := angle + share*2*math.Pi
			large := 0
			if share > 0.5 {
				large = 1
			}
			canvas.Path(fmt.Sprintf("M%.2f,%.2f L%.2f,%.2f A%.2f,%.2f 0 %d,1 %.2f,%.2f Z",
				cx, cy,
				cx+radius*math.Cos(angle), cy+radius*math.Sin(angle),
				radius, radius, large,
				cx+radius*math.Cos(next), cy+radius*math.Sin(next),
			), style)
			angle = next
		}
	} else {
		canvas.Circle(int(cx), int(cy), int(radius), "fill:none;stroke:#cccccc;stroke-width:1")
	}

	for i, r := range rows {
		y := legendTop + i*rowH
		canvas.Rect(padding*2, y, 14, 14, fmt.Sprintf("fill:%s", SlotColor(i+1)))
		label := fmt.Sprintf("%s: %.2f kg", runewidth.Truncate(r.Name, 32, "…"), r.WeightTaken)
		canvas.Text(padding*2+20, y+12, label,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:sans-serif", css(colorCaption)))
	}

	canvas.End()
	return nil
}
