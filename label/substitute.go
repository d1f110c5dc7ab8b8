package label

import "strings"

// Substitute resolves every known placeholder token in a compiled command
// stream with the rendered field text. A token whose field is unset stays
// in the stream as-is: an unresolved `{sortValue}` printed literally on a
// label is a visible, harmless signal, where a hard error would block the
// whole print.
func Substitute(stream string, f Fields) string {
	pairs := make([]string, 0, 18)
	add := func(token, value string) {
		if value != "" {
			pairs = append(pairs, token, value)
		}
	}
	add("{date}", f.Date)
	add("{productName}", f.ProductName)
	add("{productNameEn}", f.ProductNameEn)
	add("{sku}", f.SKU)
	if f.Weight != 0 {
		add("{weight}", f.WeightText())
	}
	if f.SerialNumber != 0 {
		add("{serialNumber}", f.SerialText())
	}
	add("{sortLabel}", f.SortLabel)
	add("{sortValue}", f.SortValue)
	add("{logoGraphic}", f.LogoGraphic)
	if len(pairs) == 0 {
		return stream
	}
	return strings.NewReplacer(pairs...).Replace(stream)
}
