package insight

import (
	"strings"
	"testing"
)

// TestSanitizeHTMLStripsAttributesAndScripts verifies attributes never
// survive and high-risk tags disappear with their contents.
func TestSanitizeHTMLStripsAttributesAndScripts(t *testing.T) {
	input := `<p class="x" onclick="steal()">Halo <script>alert(1)</script>dunia</p>`

	got := SanitizeHTML(input)
	want := "<p>Halo dunia</p>"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

// TestSanitizeHTMLUnwrapsUnknownTags verifies unknown tags keep their text
// while void unknowns like img vanish entirely.
func TestSanitizeHTMLUnwrapsUnknownTags(t *testing.T) {
	got := SanitizeHTML(`<div><strong>penting</strong> <img src=x onerror=alert(1)>aman</div>`)
	want := "<strong>penting</strong> aman"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

// TestSanitizeHTMLIdempotent verifies a second pass leaves output unchanged.
func TestSanitizeHTMLIdempotent(t *testing.T) {
	inputs := []string{
		"<p>Saldo <strong>Rp1.250.000</strong> &amp; aman</p>",
		`<ul><li>satu</li><li onclick="x">dua</li></ul>`,
		"teks polos tanpa tag",
	}

	for _, input := range inputs {
		once := SanitizeHTML(input)
		twice := SanitizeHTML(once)
		if once != twice {
			t.Fatalf("sanitize not stable for %q: %q vs %q", input, once, twice)
		}
	}
}

// TestSanitizeHTMLKeepsBr verifies br is preserved without attributes.
func TestSanitizeHTMLKeepsBr(t *testing.T) {
	got := SanitizeHTML(`baris satu<br class="x"/>baris dua`)
	if got != "baris satu<br>baris dua" {
		t.Fatalf("unexpected output %q", got)
	}
}

// TestNormalizeCurrencyToRupiah verifies foreign tokens and symbols become
// rupiah.
func TestNormalizeCurrencyToRupiah(t *testing.T) {
	got := NormalizeCurrencyToRupiah("Total $100 atau 5 USD per hari")
	if strings.Contains(got, "$") || strings.Contains(strings.ToLower(got), "usd") {
		t.Fatalf("expected foreign currency removed, got %q", got)
	}
	if !strings.Contains(got, "Rp 100") {
		t.Fatalf("expected Rp 100 in output, got %q", got)
	}
	if !strings.Contains(got, "rupiah") {
		t.Fatalf("expected rupiah token, got %q", got)
	}
}

// TestStripHTML verifies tags flatten to spaced plain text.
func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>Halo</p><p>dunia</p>")
	if got != "Halo dunia" {
		t.Fatalf("expected %q, got %q", "Halo dunia", got)
	}
}
