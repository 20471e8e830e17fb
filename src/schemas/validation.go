package schemas

// ValidationReport counts missing and malformed values per checked field.
type ValidationReport struct {
	TotalRecords int               `json:"total_records"`
	Fields       []FieldValidation `json:"fields"`
}

type FieldValidation struct {
	Field     string   `json:"field"`
	Missing   int      `json:"missing"`
	Malformed int      `json:"malformed"`
	Samples   []string `json:"samples"`
}

// Field returns the entry for name, or nil.
func (r *ValidationReport) Field(name string) *FieldValidation {
	for i := range r.Fields {
		if r.Fields[i].Field == name {
			return &r.Fields[i]
		}
	}
	return nil
}
