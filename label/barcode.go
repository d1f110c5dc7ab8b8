package label

import "strings"

// DefaultBarcodePattern is the payload layout used when a product has no
// pattern of its own.
const DefaultBarcodePattern = "{date}-{sku}-{serialNumber}-{weight}"

// FormatBarcode renders a barcode payload from a token pattern. Recognized
// tokens are {date}, {sku}, {serialNumber}, {weight} and {productName};
// anything else in the pattern passes through verbatim, so a typo'd token
// stays visible in the printed code instead of silently disappearing.
func FormatBarcode(pattern string, f Fields) string {
	r := strings.NewReplacer(
		"{date}", f.Date,
		"{sku}", f.SKU,
		"{serialNumber}", f.SerialText(),
		"{weight}", f.WeightText(),
		"{productName}", f.ProductName,
	)
	return r.Replace(pattern)
}
