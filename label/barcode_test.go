package label

import "testing"

func TestFormatBarcodeDefaultPattern(t *testing.T) {
	f := Fields{
		Date:         "01.02.2025",
		SKU:          "LV-01",
		SerialNumber: 105,
		Weight:       12.5,
	}
	got := FormatBarcode(DefaultBarcodePattern, f)
	want := "01.02.2025-LV-01-105-12.50"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatBarcodeUnknownTokenPreserved(t *testing.T) {
	got := FormatBarcode("{foo}-{sku}", Fields{SKU: "AB1"})
	if got != "{foo}-AB1" {
		t.Fatalf("expected unknown token preserved, got %q", got)
	}
}

func TestFormatBarcodeReferentiallyTransparent(t *testing.T) {
	f := Fields{Date: "02.03.2025", SKU: "X", SerialNumber: 7, Weight: 3.141, ProductName: "Коротке волокно"}
	pattern := "{productName}/{date}/{serialNumber}/{weight}"
	first := FormatBarcode(pattern, f)
	for i := 0; i < 10; i++ {
		if got := FormatBarcode(pattern, f); got != first {
			t.Fatalf("call %d produced %q, expected %q", i, got, first)
		}
	}
	if first != "Коротке волокно/02.03.2025/7/3.14" {
		t.Fatalf("unexpected payload %q", first)
	}
}

func TestFormatBarcodeWeightTwoDecimals(t *testing.T) {
	cases := []struct {
		weight float64
		want   string
	}{
		{10, "10.00"},
		{15.5, "15.50"},
		{0.125, "0.12"},
	}
	for _, tc := range cases {
		got := FormatBarcode("{weight}", Fields{Weight: tc.weight})
		if got != tc.want {
			t.Errorf("weight %v: expected %q, got %q", tc.weight, tc.want, got)
		}
	}
}
