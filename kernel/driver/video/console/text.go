// Package console drives the character-cell framebuffer of VGA text mode.
// Each cell is a 16-bit word holding the character in the low byte and its
// Attr in the high byte.
package console

import "unsafe"

// Geometry of the text buffer set up by the BIOS or a Multiboot loader.
const (
	TextBufferAddr = uintptr(0xb8000)
	TextWidth      = 80
	TextHeight     = 25
)

// Color is an entry of the 16-color text mode palette.
type Color uint8

// Palette entries in hardware order.
const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGrey
	DarkGrey
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	Yellow
	White
)

// Attr is the attribute byte of a cell: background color in the high nibble,
// foreground color in the low nibble.
type Attr uint8

// MakeAttr combines a foreground and a background color.
func MakeAttr(fg, bg Color) Attr {
	return Attr(bg&0xf)<<4 | Attr(fg&0xf)
}

func cell(ch byte, attr Attr) uint16 {
	return uint16(attr)<<8 | uint16(ch)
}

// blank is stored by Clear.
var blank = cell(' ', MakeAttr(Black, Black))

// Direction selects which way Scroll moves the rows.
type Direction uint8

const (
	// Up moves rows towards the top of the screen.
	Up Direction = iota

	// Down moves rows towards the bottom of the screen.
	Down
)

// Text is a console backed by a text-mode framebuffer.
type Text struct {
	width  uint16
	height uint16

	fb []uint16
}

// Init attaches the console to the width*height cells at fbAddr, which must
// stay mapped for the lifetime of the console.
func (cons *Text) Init(width, height uint16, fbAddr uintptr) {
	cons.width = width
	cons.height = height
	cons.fb = unsafe.Slice((*uint16)(unsafe.Pointer(fbAddr)), int(width)*int(height))
}

// Dimensions returns the console width and height in characters.
func (cons *Text) Dimensions() (uint16, uint16) {
	return cons.width, cons.height
}

// Clear blanks the rectangle of cells at (x, y), clipped to the screen.
func (cons *Text) Clear(x, y, width, height uint16) {
	if x >= cons.width || y >= cons.height {
		return
	}

	right := min(int(x)+int(width), int(cons.width))
	bottom := min(int(y)+int(height), int(cons.height))
	for row := int(y); row < bottom; row++ {
		start := row * int(cons.width)
		cells := cons.fb[start+int(x) : start+right]
		for i := range cells {
			cells[i] = blank
		}
	}
}

// Scroll moves the screen contents by lines rows. Rows uncovered by the move
// keep their previous contents. Scrolling more rows than the screen holds
// does nothing.
func (cons *Text) Scroll(dir Direction, lines uint16) {
	if lines == 0 || lines > cons.height {
		return
	}

	shift := int(lines) * int(cons.width)
	switch dir {
	case Up:
		copy(cons.fb, cons.fb[shift:])
	case Down:
		copy(cons.fb[shift:], cons.fb)
	}
}

// Write stores ch with attr at (x, y). Coordinates outside the screen are
// ignored.
func (cons *Text) Write(ch byte, attr Attr, x, y uint16) {
	if x >= cons.width || y >= cons.height {
		return
	}

	cons.fb[int(y)*int(cons.width)+int(x)] = cell(ch, attr)
}
