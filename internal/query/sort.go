package query

// Field names a sortable product attribute.
type Field string

const (
	FieldName      Field = "name"
	FieldBrand     Field = "brand"
	FieldCategory  Field = "category"
	FieldPrice     Field = "price"
	FieldCreatedAt Field = "created_at"
)

// Dir is a sort direction.
type Dir string

const (
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

// SortSpec is a (field, direction) pair.
type SortSpec struct {
	Field Field
	Dir   Dir
}

// DefaultSort orders by creation timestamp, newest first.
func DefaultSort() SortSpec {
	return SortSpec{Field: FieldCreatedAt, Dir: Desc}
}

// Normalize maps unknown fields and directions to the defaults.
func (s SortSpec) Normalize() SortSpec {
	switch s.Field {
	case FieldName, FieldBrand, FieldCategory, FieldPrice, FieldCreatedAt:
	default:
		s.Field = FieldCreatedAt
	}
	if s.Dir != Asc && s.Dir != Desc {
		if s.Field == FieldCreatedAt {
			s.Dir = Desc
		} else {
			s.Dir = Asc
		}
	}
	return s
}

// Toggle returns the sort after the user reselects a column: the same
// field flips direction, a new field starts ascending.
func (s SortSpec) Toggle(field Field) SortSpec {
	spec := SortSpec{Field: field, Dir: Asc}
	if s.Field == field {
		if s.Dir == Asc {
			spec.Dir = Desc
		}
	}
	return spec.Normalize()
}
