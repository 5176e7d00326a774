package viz

import (
	"math"
	"strings"
)

const brailleBlank = 0x2800

// Braille dots per cell, indexed [row][col]:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille pixel grid: every cell holds 2x4 dots, so a canvas of
// w x h cells addresses 2w x 4h dots.
type Canvas struct {
	cols, rows int
	cells      [][]rune
}

func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{cols: cols, rows: rows, cells: make([][]rune, rows)}
	for i := range c.cells {
		c.cells[i] = make([]rune, cols)
	}
	c.Clear()
	return c
}

func (c *Canvas) Dots() (int, int) { return c.cols * 2, c.rows * 4 }

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x/2 >= c.cols || y/4 >= c.rows {
		return
	}
	c.cells[y/4][x/2] |= dotBits[y%4][x%2]
}

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			x0 += sx
		}
		if e2 < dx {
			e += dx
			y0 += sy
		}
	}
}

// Fan draws one ray per range sensor from the bottom centre of the canvas.
// Ray length is the reading scaled against maxRange; angles are degrees,
// negative to the left.
func (c *Canvas) Fan(readings []float64, angles []float64, maxRange float64) {
	w, h := c.Dots()
	ox, oy := w/2, h-1
	scale := float64(h-1) / maxRange
	for i, r := range readings {
		if i >= len(angles) {
			break
		}
		r = math.Max(0, math.Min(maxRange, r))
		rad := angles[i] * math.Pi / 180
		x := ox + int(math.Round(r*scale*math.Sin(rad)))
		y := oy - int(math.Round(r*scale*math.Cos(rad)))
		c.Line(ox, oy, x, y)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
