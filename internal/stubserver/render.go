package stubserver

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/aixiera/phosphene-web/models"

	"golang.org/x/image/draw"
)

// maxOutput bounds the longer side of every rendered percept
const maxOutput = 280

// grid is the electrode layout a percept is pixelated to, columns by rows
type grid struct {
	cols, rows int
}

var grids = map[models.Implant]grid{
	models.AlphaAMS: {cols: 40, rows: 40},
	models.ArgusII:  {cols: 10, rows: 6},
	models.PRIMA:    {cols: 20, rows: 20},
}

// Render produces a mock percept: inverted grayscale, sampled down to the
// implant's grid and scaled back up with hard pixel edges
func Render(src image.Image, implant models.Implant) ([]byte, error) {
	g, ok := grids[implant]
	if !ok {
		return nil, fmt.Errorf("unknown implant %q", implant)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}

	small := image.NewGray(image.Rect(0, 0, g.cols, g.rows))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), src, src.Bounds(), draw.Src, nil)
	for i, v := range small.Pix {
		small.Pix[i] = 255 - v
	}

	w, h := outputSize(g)
	out := image.NewGray(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// outputSize scales the grid up by a whole factor so every electrode is the same size
func outputSize(g grid) (int, int) {
	longest := g.cols
	if g.rows > longest {
		longest = g.rows
	}
	scale := maxOutput / longest
	if scale < 1 {
		scale = 1
	}
	return g.cols * scale, g.rows * scale
}
