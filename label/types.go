// Package label compiles structured label templates into the textual command
// streams executed by thermal label printers, and fills in live production
// fields (weight, serial number, date) just before dispatch.
package label

import (
	"fmt"
	"strconv"
)

// ElementKind identifies the variant of a label element
type ElementKind string

const (
	KindText     ElementKind = "text"
	KindVariable ElementKind = "variable"
	KindBarcode  ElementKind = "barcode"
	KindQRCode   ElementKind = "qrcode"
	KindLine     ElementKind = "line"
	KindBox      ElementKind = "box"
	KindImage    ElementKind = "image"
)

// Element is one positioned item on a label. Only the fields relevant to
// its Kind are used.
type Element struct {
	Kind ElementKind `json:"kind"`

	// Position in dots from the label's top-left corner
	X int `json:"x"`
	Y int `json:"y"`
	// Rotation is one of 0, 90, 180, 270 (clockwise)
	Rotation int `json:"rotation,omitempty"`

	// FontSize applies to text and variable elements (dot height)
	FontSize int `json:"font_size,omitempty"`
	// Content is literal text or a barcode/QR payload; it may contain
	// placeholder tokens resolved at print time
	Content string `json:"content,omitempty"`
	// Variable names the field whose placeholder a variable element emits
	Variable string `json:"variable,omitempty"`

	// BarcodeHeight is the bar height in dots for barcode elements
	BarcodeHeight int `json:"barcode_height,omitempty"`

	// Width and Height size line, box, qrcode and image elements
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// ImageSource is the file path of an embedded logo
	ImageSource string `json:"image_source,omitempty"`
}

// Template is a full label design. Element order is z-order: later elements
// draw over earlier ones. A template is immutable once handed to Compile.
type Template struct {
	ID         string    `json:"id"`
	WidthDots  int       `json:"width_dots"`
	HeightDots int       `json:"height_dots"`
	Elements   []Element `json:"elements"`
}

// Fields is the live substitution set for one printed label
type Fields struct {
	Date          string  `json:"date"`
	ProductName   string  `json:"product_name"`
	ProductNameEn string  `json:"product_name_en,omitempty"`
	SKU           string  `json:"sku"`
	Weight        float64 `json:"weight"`
	SerialNumber  uint64  `json:"serial_number"`
	SortLabel     string  `json:"sort_label,omitempty"`
	SortValue     string  `json:"sort_value,omitempty"`
	LogoGraphic   string  `json:"logo_graphic,omitempty"`
	Quantity      int     `json:"quantity,omitempty"`
}

// WeightText renders the weight as fixed-point with two decimals
func (f Fields) WeightText() string {
	return fmt.Sprintf("%.2f", f.Weight)
}

// SerialText renders the serial number as a plain integer
func (f Fields) SerialText() string {
	return strconv.FormatUint(f.SerialNumber, 10)
}

// Logger is the minimal logging interface the label package needs
type Logger interface {
	Error(msg string, context ...interface{})
	Warn(msg string, context ...interface{})
	Info(msg string, context ...interface{})
	Debug(msg string, context ...interface{})
}

type nullLogger struct{}

func (nullLogger) Error(msg string, context ...interface{}) {}
func (nullLogger) Warn(msg string, context ...interface{})  {}
func (nullLogger) Info(msg string, context ...interface{})  {}
func (nullLogger) Debug(msg string, context ...interface{}) {}
