package console

import (
	"testing"
	"unsafe"
)

var initFB [TextWidth * TextHeight]uint16

func newText() *Text {
	return &Text{width: TextWidth, height: TextHeight, fb: make([]uint16, TextWidth*TextHeight)}
}

func TestMakeAttr(t *testing.T) {
	specs := []struct {
		fg, bg Color
		exp    Attr
	}{
		{LightGrey, Black, 0x07},
		{White, Blue, 0x1f},
		{Yellow, Red, 0x4e},
		{Black, White, 0xf0},
	}

	for specIndex, spec := range specs {
		if got := MakeAttr(spec.fg, spec.bg); got != spec.exp {
			t.Errorf("[spec %d] expected attribute %#x; got %#x", specIndex, spec.exp, got)
		}
	}
}

func TestTextInit(t *testing.T) {
	var cons Text
	cons.Init(TextWidth, TextHeight, uintptr(unsafe.Pointer(&initFB[0])))

	if w, h := cons.Dimensions(); w != TextWidth || h != TextHeight {
		t.Fatalf("expected console dimensions after Init() to be (%d, %d); got (%d, %d)", TextWidth, TextHeight, w, h)
	}

	cons.Write('A', MakeAttr(LightGrey, Black), 79, 24)
	if exp := uint16(LightGrey)<<8 | 'A'; initFB[len(initFB)-1] != exp {
		t.Fatalf("expected the last cell to be %#x; got %#x", exp, initFB[len(initFB)-1])
	}
}

func TestTextClear(t *testing.T) {
	specs := []struct {
		// Input rect
		x, y, w, h uint16

		// Expected area to be cleared
		expX, expY, expW, expH uint16
	}{
		{
			0, 0, 500, 500,
			0, 0, 80, 25,
		},
		{
			10, 10, 11, 50,
			10, 10, 11, 15,
		},
		{
			10, 10, 110, 1,
			10, 10, 70, 1,
		},
		{
			70, 20, 20, 20,
			70, 20, 10, 5,
		},
		{
			90, 25, 20, 20,
			0, 0, 0, 0,
		},
		{
			12, 12, 5, 6,
			12, 12, 5, 6,
		},
	}

	cons := newText()

	testPat := uint16(0xDEAD)
	clearPat := uint16(' ')

nextSpec:
	for specIndex, spec := range specs {
		// Fill FB with test pattern
		for i := 0; i < len(cons.fb); i++ {
			cons.fb[i] = testPat
		}

		cons.Clear(spec.x, spec.y, spec.w, spec.h)

		var x, y uint16
		for y = 0; y < cons.height; y++ {
			for x = 0; x < cons.width; x++ {
				fbVal := cons.fb[(y*cons.width)+x]

				if x < spec.expX || y < spec.expY || x >= spec.expX+spec.expW || y >= spec.expY+spec.expH {
					if fbVal != testPat {
						t.Errorf("[spec %d] expected char at (%d, %d) not to be cleared", specIndex, x, y)
						continue nextSpec
					}
				} else if fbVal != clearPat {
					t.Errorf("[spec %d] expected char at (%d, %d) to be cleared", specIndex, x, y)
					continue nextSpec
				}
			}
		}
	}
}

// fillRows stores (row << 8 | column) in every cell.
func fillRows(cons *Text) {
	var x, y, index uint16
	for y = 0; y < cons.height; y++ {
		for x = 0; x < cons.width; x++ {
			cons.fb[index] = (y << 8) | x
			index++
		}
	}
}

func TestTextScroll(t *testing.T) {
	cons := newText()

nextSpec:
	for specIndex, lines := range []uint16{0, 1, 2} {
		fillRows(cons)
		cons.Scroll(Up, lines)

		// Rows 0 to (height - lines) hold the rows that were below them.
		var x, y, index uint16
		for y = 0; y < cons.height-lines; y++ {
			for x = 0; x < cons.width; x++ {
				expVal := ((y + lines) << 8) | x
				if cons.fb[index] != expVal {
					t.Errorf("[spec %d] up: expected value at (%d, %d) to be %d; got %d", specIndex, x, y, expVal, cons.fb[index])
					continue nextSpec
				}
				index++
			}
		}

		fillRows(cons)
		cons.Scroll(Down, lines)

		index = lines * cons.width
		for y = lines; y < cons.height; y++ {
			for x = 0; x < cons.width; x++ {
				expVal := ((y - lines) << 8) | x
				if cons.fb[index] != expVal {
					t.Errorf("[spec %d] down: expected value at (%d, %d) to be %d; got %d", specIndex, x, y, expVal, cons.fb[index])
					continue nextSpec
				}
				index++
			}
		}
	}

	// Scrolling more lines than the console holds is ignored.
	fillRows(cons)
	cons.Scroll(Up, cons.height+1)
	if cons.fb[0] != 0 || cons.fb[len(cons.fb)-1] != (24<<8|79) {
		t.Fatal("expected an oversized scroll to be a no-op")
	}
}

func TestTextWrite(t *testing.T) {
	cons := newText()

	specs := []struct {
		x, y uint16
	}{
		{80, 25},
		{90, 24},
		{79, 30},
		{100, 100},
	}

	for specIndex, spec := range specs {
		cons.Write('!', MakeAttr(Red, Black), spec.x, spec.y)
		for i := 0; i < len(cons.fb); i++ {
			if got := cons.fb[i]; got != 0 {
				t.Errorf("[spec %d] expected Write() with off-screen coords to be a no-op", specIndex)
				break
			}
		}
	}

	attr := MakeAttr(Red, Black)
	cons.Write('!', attr, 1, 2)

	expVal := uint16(attr)<<8 | uint16('!')
	if got := cons.fb[2*80+1]; got != expVal {
		t.Errorf("expected call to Write() to set the cell at (1, 2) to %d; got %d", expVal, got)
	}
}
