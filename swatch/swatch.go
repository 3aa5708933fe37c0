// Package swatch renders color tokens as a sheet of labeled cells.
package swatch

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"okvars/oklch"
)

const (
	padding    = 4
	lineHeight = 14
	labelLines = 2
)

var ErrNothingToRender = errors.New("no colors to render")

// Cell is a single color on the sheet.
type Cell struct {
	Group string // cells of different groups never share a row
	Label string
	Color oklch.RGBA
}

// Options control sheet geometry.
type Options struct {
	Columns  int
	CellSize int
}

// Layout returns row and column of every cell.
func Layout(cells []Cell, columns int) (pos []image.Point, rows int) {
	pos = make([]image.Point, len(cells))
	col, row := 0, 0
	for i, c := range cells {
		if i > 0 && (col == columns || c.Group != cells[i-1].Group) {
			col, row = 0, row+1
		}
		pos[i] = image.Pt(col, row)
		col++
	}
	if len(cells) > 0 {
		rows = row + 1
	}
	return pos, rows
}

// Render draws cells on white background. Color area of every cell is
// blended according to its alpha, label shows name and hex value.
func Render(cells []Cell, opts Options) (*image.NRGBA, error) {
	if len(cells) == 0 {
		return nil, ErrNothingToRender
	}
	if opts.Columns < 1 || opts.CellSize < 1 {
		return nil, fmt.Errorf("invalid sheet geometry: %d columns, cell size %d", opts.Columns, opts.CellSize)
	}

	pos, rows := Layout(cells, opts.Columns)
	columns := 0
	for _, p := range pos {
		columns = max(columns, p.X+1)
	}

	cellW := opts.CellSize + padding
	cellH := opts.CellSize + labelLines*lineHeight + 2*padding
	sheet := imaging.New(columns*cellW+padding, rows*cellH+padding, color.White)

	background := imaging.New(opts.CellSize, opts.CellSize, color.White)

	face := basicfont.Face7x13
	maxChars := opts.CellSize / face.Advance

	for i, c := range cells {
		x := padding + pos[i].X*cellW
		y := padding + pos[i].Y*cellH

		fill := imaging.New(opts.CellSize, opts.CellSize, color.NRGBA{
			R: channel(c.Color.R), G: channel(c.Color.G), B: channel(c.Color.B), A: 0xff,
		})
		tile := imaging.Overlay(background, fill, image.Point{}, c.Color.A)
		draw.Draw(sheet, tile.Bounds().Add(image.Pt(x, y)), tile, image.Point{}, draw.Src)

		d := font.Drawer{Dst: sheet, Src: image.Black, Face: face}
		for n, line := range []string{c.Label, c.Color.Hex()} {
			d.Dot = fixed.P(x, y+opts.CellSize+padding+(n+1)*lineHeight-3)
			d.DrawString(truncate(line, maxChars))
		}
	}
	return sheet, nil
}

// Save writes sheet to file, format is selected by extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("unable to save swatch sheet: %w", err)
	}
	return nil
}

// Encode writes sheet as PNG.
func Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

func channel(v float64) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
