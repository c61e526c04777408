package components

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// upperHalf is drawn with the top pixel as foreground and the bottom pixel as background,
// so every terminal cell carries two vertically stacked pixels
const upperHalf = "▀"

// ThumbnailSize returns the cell size an image gets when fitted into cols x rows,
// keeping its aspect ratio
func ThumbnailSize(bounds image.Rectangle, cols, rows int) (int, int) {
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0
	}

	scale := math.Min(float64(cols)/float64(w), float64(rows*2)/float64(h))
	tw := int(math.Round(float64(w) * scale))
	th := int(math.Round(float64(h) * scale))
	if tw < 1 {
		tw = 1
	}
	if th < 2 {
		th = 2
	}
	if th%2 == 1 {
		th++
	}
	if th > rows*2 {
		th = rows * 2
	}
	return tw, th / 2
}

// RenderThumbnail draws an image into at most cols x rows terminal cells
func RenderThumbnail(img image.Image, cols, rows int) string {
	tw, trows := ThumbnailSize(img.Bounds(), cols, rows)
	if tw == 0 || trows == 0 {
		return ""
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, trows*2))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var b strings.Builder
	for y := 0; y < trows*2; y += 2 {
		if y > 0 {
			b.WriteString("\n")
		}
		for x := 0; x < tw; x++ {
			top := hexColor(dst, x, y)
			bottom := hexColor(dst, x, y+1)
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render(upperHalf))
		}
	}
	return b.String()
}

func hexColor(img *image.RGBA, x, y int) string {
	c := img.RGBAAt(x, y)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
