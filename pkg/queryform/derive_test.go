package queryform

import "testing"

func TestDeriveDisplay(t *testing.T) {
	texts := []string{"", "rama", "राम", "  spaced  "}
	for _, isIndic := range []bool{true, false} {
		for _, q := range texts {
			for _, iq := range texts {
				want := q
				if isIndic {
					want = iq
				}
				if got := DeriveDisplay(isIndic, q, iq); got != want {
					t.Fatalf("DeriveDisplay(%v, %q, %q) = %q, want %q", isIndic, q, iq, got, want)
				}
			}
		}
	}
}

func TestLayoutFor(t *testing.T) {
	cases := []struct {
		name       string
		isIndic    bool
		isAllTexts bool
		visible    []string
		hidden     []string
	}{
		{
			name:       "indic all texts",
			isIndic:    true,
			isAllTexts: true,
			visible:    []string{FieldIsIndic, FieldIndicQuery, FieldDisplayQuery, FieldIsAllTexts},
			hidden:     []string{FieldQuery, FieldInputScript, FieldSelectedTexts},
		},
		{
			name:       "indic restricted",
			isIndic:    true,
			isAllTexts: false,
			visible:    []string{FieldIsIndic, FieldIndicQuery, FieldDisplayQuery, FieldIsAllTexts, FieldSelectedTexts},
			hidden:     []string{FieldQuery, FieldInputScript},
		},
		{
			name:       "romanized all texts",
			isIndic:    false,
			isAllTexts: true,
			visible:    []string{FieldIsIndic, FieldQuery, FieldInputScript, FieldDisplayQuery, FieldIsAllTexts},
			hidden:     []string{FieldIndicQuery, FieldSelectedTexts},
		},
		{
			name:       "romanized restricted",
			isIndic:    false,
			isAllTexts: false,
			visible:    []string{FieldIsIndic, FieldQuery, FieldInputScript, FieldDisplayQuery, FieldIsAllTexts, FieldSelectedTexts},
			hidden:     []string{FieldIndicQuery},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := LayoutFor(tc.isIndic, tc.isAllTexts)
			fields := layout.Fields()
			if len(fields) != len(tc.visible) {
				t.Fatalf("fields = %v, want %v", fields, tc.visible)
			}
			for i, name := range tc.visible {
				if fields[i] != name {
					t.Fatalf("fields = %v, want %v", fields, tc.visible)
				}
				if !layout.Visible(name) {
					t.Fatalf("expected %s visible", name)
				}
			}
			for _, name := range tc.hidden {
				if layout.Visible(name) {
					t.Fatalf("expected %s hidden", name)
				}
			}
		})
	}
}

func TestQueryGroupString(t *testing.T) {
	if QueryGroupIndic.String() != "indic" || QueryGroupRomanized.String() != "romanized" {
		t.Fatalf("unexpected group names")
	}
}
