package querier

import (
	"slices"

	"github.com/thisisjab/telemeter/fault"
)

// groupByFields are the only fields statistics may be grouped by.
// Metadata-based grouping is not supported.
var groupByFields = NewFieldSet("user_id", "resource_id", "project_id", "source")

// ValidateGroupBy checks the requested group-by fields and returns
// them with duplicates collapsed. Every unknown field is named in the
// returned fault. Output order is unspecified set order, sorted here
// for determinism.
func ValidateGroupBy(fields []string) ([]string, error) {
	var invalid []string
	seen := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}

		if !groupByFields.Has(f) {
			invalid = append(invalid, f)
		}
	}

	if len(invalid) > 0 {
		md := make(fault.FieldErrorsMetadata, len(invalid))
		for _, f := range invalid {
			md[f] = []string{"Invalid groupby field."}
		}
		return nil, fault.New(fault.BadInputCode, "Invalid groupby fields").WithMetadata(md)
	}

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	slices.Sort(out)

	return out, nil
}
