package label

import (
	"github.com/frstier/Marijany-Sticker-Print-sub001/imaging"
)

// Compiler turns a label template into a printer command stream. Variable
// elements compile to placeholder tokens that Substitute resolves at print
// time, so one compiled template serves every label of a production run.
type Compiler struct {
	images *imaging.Cache
	log    Logger
}

// NewCompiler creates a Compiler using the given fragment cache.
// A nil cache gets a private one; a nil logger is silently discarded into.
func NewCompiler(images *imaging.Cache, log Logger) *Compiler {
	if images == nil {
		images = imaging.NewCache()
	}
	if log == nil {
		log = nullLogger{}
	}
	return &Compiler{images: images, log: log}
}

// Compile walks the template's elements in declaration order and emits one
// command block per element between the page header and the copy-count
// trailer. Given the same template and identical image bytes the output is
// byte-identical.
//
// A broken image asset never aborts the compile: the element degrades to a
// bordered placeholder box labeled IMG at the same position and size, and
// the rest of the label still prints.
func (c *Compiler) Compile(tpl Template) string {
	var s Stream
	s.add(formatStart{})
	s.add(encodingUTF8{})
	s.add(pageSize{width: tpl.WidthDots, height: tpl.HeightDots})

	for _, el := range tpl.Elements {
		c.compileElement(&s, el)
	}

	s.add(printQuantity{copies: 1})
	s.add(formatEnd{})
	return s.String()
}

func (c *Compiler) compileElement(s *Stream, el Element) {
	switch el.Kind {
	case KindText:
		s.add(textField{
			x: el.X, y: el.Y,
			rotation: el.Rotation,
			fontSize: el.FontSize,
			content:  el.Content,
		})
	case KindVariable:
		// the placeholder token is the variable name itself
		s.add(textField{
			x: el.X, y: el.Y,
			rotation: el.Rotation,
			fontSize: el.FontSize,
			content:  "{" + el.Variable + "}",
		})
	case KindBarcode:
		s.add(barcodeField{
			x: el.X, y: el.Y,
			rotation: el.Rotation,
			height:   el.BarcodeHeight,
			content:  el.Content,
		})
	case KindQRCode:
		s.add(qrField{
			x: el.X, y: el.Y,
			magnification: qrMagnification(el.Width),
			content:       el.Content,
		})
	case KindLine:
		height := el.Height
		if height <= 0 {
			height = 1 // hairline
		}
		s.add(graphicBox{x: el.X, y: el.Y, width: el.Width, height: height, thickness: 1})
	case KindBox:
		s.add(graphicBox{x: el.X, y: el.Y, width: el.Width, height: el.Height, thickness: 2})
	case KindImage:
		c.compileImage(s, el)
	default:
		c.log.Warn("Skipping unknown label element kind", "kind", el.Kind)
	}
}

func (c *Compiler) compileImage(s *Stream, el Element) {
	frag, err := c.images.QuantizeFile(el.ImageSource, el.Width, el.Height)
	if err != nil {
		c.log.Error("Image element failed to load, printing placeholder",
			"source", el.ImageSource, "error", err)
		s.add(graphicBox{x: el.X, y: el.Y, width: el.Width, height: el.Height, thickness: 2})
		s.add(textField{x: el.X + 4, y: el.Y + 4, fontSize: 20, content: "IMG"})
		return
	}
	s.add(graphicField{x: el.X, y: el.Y, fragment: frag})
}
