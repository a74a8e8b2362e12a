// Package render rasterizes a record log into an overview image: one pixel
// per grid cell, colored by the cell's latest state.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"regexp"
	"strconv"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
)

// maxPixels caps the canvas so a stray coordinate cannot exhaust memory.
const maxPixels = 1 << 26

// ErrNoCells is returned when no record URL matches the coordinate pattern.
var ErrNoCells = errors.New("no grid cells matched the coordinate pattern")

// Palette maps each state to its pixel color.
var Palette = map[crawler.State]color.RGBA{
	crawler.StateQueued: {R: 0, G: 0, B: 255, A: 255},
	crawler.StatePage:   {R: 0, G: 255, B: 0, A: 255},
	crawler.StateAbsent: {R: 255, G: 255, B: 0, A: 255},
	crawler.StateError:  {R: 255, G: 0, B: 0, A: 255},
}

// Config locates a cell's coordinates inside its URL.
type Config struct {
	// Pattern must capture the easting and northing as its first two groups.
	Pattern    string
	CellWidth  int
	CellHeight int
}

type cell struct {
	x, y  int
	state crawler.State
}

// Rasterize paints one pixel per matching record, in log order, so the latest
// state of a cell wins. North is up and the image has a one pixel white
// border.
func Rasterize(records []crawler.Record, cfg Config) (*image.RGBA, error) {
	if cfg.CellWidth <= 0 || cfg.CellHeight <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %dx%d", cfg.CellWidth, cfg.CellHeight)
	}
	re, err := regexp.Compile(cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile coordinate pattern: %w", err)
	}
	if re.NumSubexp() < 2 {
		return nil, fmt.Errorf("coordinate pattern must capture two groups")
	}

	var cells []cell
	minX, minY, maxX, maxY := 0, 0, 0, 0
	for _, rec := range records {
		c, ok := locate(re, rec, cfg)
		if !ok {
			continue
		}
		if len(cells) == 0 {
			minX, maxX, minY, maxY = c.x, c.x, c.y, c.y
		}
		minX, maxX = min(minX, c.x), max(maxX, c.x)
		minY, maxY = min(minY, c.y), max(maxY, c.y)
		cells = append(cells, c)
	}
	if len(cells) == 0 {
		return nil, ErrNoCells
	}

	width, height := maxX-minX+3, maxY-minY+3
	if width*height > maxPixels {
		return nil, fmt.Errorf("canvas %dx%d exceeds %d pixels", width, height, maxPixels)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, c := range cells {
		img.SetRGBA(1+c.x-minX, 1+maxY-c.y, Palette[c.state])
	}
	return img, nil
}

func locate(re *regexp.Regexp, rec crawler.Record, cfg Config) (cell, bool) {
	if _, ok := Palette[rec.State]; !ok {
		return cell{}, false
	}
	m := re.FindStringSubmatch(rec.URL)
	if m == nil {
		return cell{}, false
	}
	east, err := strconv.Atoi(m[1])
	if err != nil {
		return cell{}, false
	}
	north, err := strconv.Atoi(m[2])
	if err != nil {
		return cell{}, false
	}
	return cell{x: east / cfg.CellWidth, y: north / cfg.CellHeight, state: rec.State}, true
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
