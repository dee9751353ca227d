package queryform

// QueryGroup tags which query input group is exposed.
type QueryGroup int

const (
	// QueryGroupIndic shows the single native-script query field.
	QueryGroupIndic QueryGroup = iota
	// QueryGroupRomanized shows the romanized query and its input script.
	QueryGroupRomanized
)

func (g QueryGroup) String() string {
	if g == QueryGroupRomanized {
		return "romanized"
	}
	return "indic"
}

// Layout describes which optional field groups are visible. The two
// dimensions are independent and every combination is valid.
type Layout struct {
	Query     QueryGroup
	TextScope bool
}

// LayoutFor maps the two form flags to a layout.
func LayoutFor(isIndic, isAllTexts bool) Layout {
	layout := Layout{Query: QueryGroupIndic, TextScope: !isAllTexts}
	if !isIndic {
		layout.Query = QueryGroupRomanized
	}
	return layout
}

// Fields lists the visible field names in render order.
func (l Layout) Fields() []string {
	fields := []string{FieldIsIndic}
	switch l.Query {
	case QueryGroupRomanized:
		fields = append(fields, FieldQuery, FieldInputScript)
	default:
		fields = append(fields, FieldIndicQuery)
	}
	fields = append(fields, FieldDisplayQuery, FieldIsAllTexts)
	if l.TextScope {
		fields = append(fields, FieldSelectedTexts)
	}
	return fields
}

// Visible reports whether the named field is exposed under this layout.
func (l Layout) Visible(name string) bool {
	switch name {
	case FieldIndicQuery:
		return l.Query == QueryGroupIndic
	case FieldQuery, FieldInputScript:
		return l.Query == QueryGroupRomanized
	case FieldSelectedTexts:
		return l.TextScope
	case FieldIsIndic, FieldDisplayQuery, FieldIsAllTexts:
		return true
	default:
		return false
	}
}
