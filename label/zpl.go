package label

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/frstier/Marijany-Sticker-Print-sub001/imaging"
)

// Directive is one typed printer instruction. The compiler builds a list of
// directives and serializes to text only at the boundary, so another printer
// dialect can be added without touching the element-walking logic.
type Directive interface {
	zpl() string
}

type formatStart struct{}

func (formatStart) zpl() string { return "^XA" }

type formatEnd struct{}

func (formatEnd) zpl() string { return "^XZ" }

// encodingUTF8 selects the UTF-8 character set so Cyrillic product names
// survive the trip to the print head.
type encodingUTF8 struct{}

func (encodingUTF8) zpl() string { return "^CI28" }

type pageSize struct {
	width  int
	height int
}

func (d pageSize) zpl() string { return fmt.Sprintf("^PW%d\n^LL%d", d.width, d.height) }

type textField struct {
	x, y     int
	rotation int
	fontSize int
	content  string
}

func (d textField) zpl() string {
	size := d.fontSize
	if size <= 0 {
		size = 20
	}
	return fmt.Sprintf("^FO%d,%d^A0%s,%d,%d^FD%s^FS",
		d.x, d.y, rotationCode(d.rotation), size, size, d.content)
}

type barcodeField struct {
	x, y     int
	rotation int
	height   int
	content  string
}

func (d barcodeField) zpl() string {
	height := d.height
	if height <= 0 {
		height = 50
	}
	return fmt.Sprintf("^FO%d,%d^BY2^BC%s,%d,Y,N,N^FD%s^FS",
		d.x, d.y, rotationCode(d.rotation), height, d.content)
}

type qrField struct {
	x, y          int
	magnification int
	content       string
}

func (d qrField) zpl() string {
	return fmt.Sprintf("^FO%d,%d^BQN,2,%d^FDQA,%s^FS",
		d.x, d.y, d.magnification, d.content)
}

type graphicBox struct {
	x, y      int
	width     int
	height    int
	thickness int
}

func (d graphicBox) zpl() string {
	return fmt.Sprintf("^FO%d,%d^GB%d,%d,%d^FS",
		d.x, d.y, d.width, d.height, d.thickness)
}

type graphicField struct {
	x, y     int
	fragment imaging.Fragment
}

func (d graphicField) zpl() string {
	return fmt.Sprintf("^FO%d,%d%s^FS", d.x, d.y, d.fragment.Directive())
}

type printQuantity struct {
	copies int
}

func (d printQuantity) zpl() string { return fmt.Sprintf("^PQ%d", d.copies) }

// Stream is an ordered list of directives forming one label job
type Stream struct {
	directives []Directive
}

func (s *Stream) add(d Directive) {
	s.directives = append(s.directives, d)
}

// String serializes the stream to the textual printer language
func (s *Stream) String() string {
	var b strings.Builder
	for i, d := range s.directives {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.zpl())
	}
	return b.String()
}

// rotationCode maps a clockwise rotation in degrees to the dialect's field
// orientation letter. Unsupported angles fall back to normal orientation.
func rotationCode(degrees int) string {
	switch degrees {
	case 90:
		return "R"
	case 180:
		return "I"
	case 270:
		return "B"
	default:
		return "N"
	}
}

// qrMagnification derives the matrix code size factor from the declared
// pixel width. The scaling is coarse: one magnification step per 25 dots,
// clamped to the printable range.
func qrMagnification(widthDots int) int {
	mag := widthDots / 25
	if mag < 1 {
		mag = 1
	}
	if mag > 10 {
		mag = 10
	}
	return mag
}

var quantityPattern = regexp.MustCompile(`\^PQ\d+`)

// WithCopies rewrites the copy-count trailer of an already serialized
// stream. The dispatcher uses this when batch-printing duplicates of the
// same label.
func WithCopies(stream string, copies int) string {
	if copies < 1 {
		copies = 1
	}
	return quantityPattern.ReplaceAllString(stream, fmt.Sprintf("^PQ%d", copies))
}
