// Package tty implements terminals on top of the console drivers.
package tty

import "github.com/pedrolamarao/psys/kernel/driver/video/console"

const (
	defaultFg = console.LightGrey
	defaultBg = console.Black

	tabWidth = 8
)

// Vt implements a simple terminal that can process LF, CR and TAB characters.
// The terminal uses a console device for its output.
type Vt struct {
	cons *console.Text

	width  uint16
	height uint16

	curX    uint16
	curY    uint16
	curAttr console.Attr
}

// Init attaches the terminal to cons and homes the cursor.
func (t *Vt) Init(cons *console.Text) {
	t.cons = cons
	t.width, t.height = cons.Dimensions()
	t.curX = 0
	t.curY = 0

	// Default to lightgrey on black text.
	t.curAttr = console.MakeAttr(defaultFg, defaultBg)
}

// Dimensions returns the terminal width and height in characters.
func (t *Vt) Dimensions() (uint16, uint16) {
	return t.width, t.height
}

// Clear clears the terminal.
func (t *Vt) Clear() {
	t.cons.Clear(0, 0, t.width, t.height)
}

// Position returns the current cursor position (x, y).
func (t *Vt) Position() (uint16, uint16) {
	return t.curX, t.curY
}

// SetPosition sets the current cursor position to (x,y).
func (t *Vt) SetPosition(x, y uint16) {
	if x >= t.width {
		x = t.width - 1
	}

	if y >= t.height {
		y = t.height - 1
	}

	t.curX, t.curY = x, y
}

// SetColors selects the attribute of subsequently written characters.
func (t *Vt) SetColors(fg, bg console.Color) {
	t.curAttr = console.MakeAttr(fg, bg)
}

// Write implements io.Writer. Writes to a terminal that is not attached to a
// console are discarded.
func (t *Vt) Write(data []byte) (int, error) {
	if t.cons == nil {
		return len(data), nil
	}

	attr := t.curAttr
	for _, b := range data {
		switch b {
		case '\r':
			t.cr()
		case '\n':
			t.cr()
			t.lf()
		case '\t':
			for t.put(' ', attr); t.curX%tabWidth != 0; {
				t.put(' ', attr)
			}
		default:
			t.put(b, attr)
		}
	}

	return len(data), nil
}

// put writes b at the cursor and advances it, wrapping at the right edge.
func (t *Vt) put(b byte, attr console.Attr) {
	t.cons.Write(b, attr, t.curX, t.curY)
	t.curX++
	if t.curX == t.width {
		t.cr()
		t.lf()
	}
}

// cr resets the x coordinate of the terminal cursor to 0.
func (t *Vt) cr() {
	t.curX = 0
}

// lf advances the y coordinate of the terminal cursor by one line scrolling
// the terminal contents if the end of the last terminal line is reached.
func (t *Vt) lf() {
	if t.curY+1 < t.height {
		t.curY++
		return
	}

	t.cons.Scroll(console.Up, 1)
	t.cons.Clear(0, t.height-1, t.width, 1)
}
