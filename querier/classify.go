package querier

import (
	"fmt"
	"strings"

	"github.com/thisisjab/telemeter/fault"
)

const (
	fieldTimestamp    = "timestamp"
	fieldSearchOffset = "search_offset"

	metadataPrefix         = "metadata."
	resourceMetadataPrefix = "resource_metadata."
)

// fieldAliases maps the wire-level identifier names onto the column
// names storage operations declare.
var fieldAliases = map[string]string{
	"user_id":     "user",
	"project_id":  "project",
	"resource_id": "resource",
}

type fieldClass int

const (
	classPlain fieldClass = iota
	classTimestamp
	classSearchOffset
	classMetadata
)

type classification struct {
	class fieldClass

	// key is the resolved column name for plain fields, or the dotted
	// metadata path (including the metadata. prefix) for metadata
	// fields.
	key string
}

// classify decides how a single expression routes into the descriptor.
// Timestamp expressions pass through with any comparator (the window
// resolver restricts them); every other field only supports equality.
// Metadata-namespaced fields bypass the accepted-field check: the
// backend ignores unknown metadata keys.
func classify(expr Expression, accepted FieldSet) (classification, error) {
	if expr.Field == fieldTimestamp {
		return classification{class: classTimestamp}, nil
	}

	if expr.Op != OpEQ {
		return classification{}, unimplementedOperator(expr)
	}

	switch {
	case expr.Field == fieldSearchOffset:
		return classification{class: classSearchOffset}, nil

	case strings.HasPrefix(expr.Field, metadataPrefix):
		return classification{class: classMetadata, key: expr.Field}, nil

	case strings.HasPrefix(expr.Field, resourceMetadataPrefix):
		// Strip the resource_ part so both namespaces land on the same
		// metadata. keys.
		return classification{class: classMetadata, key: expr.Field[len("resource_"):]}, nil
	}

	key := expr.Field
	if alias, ok := fieldAliases[key]; ok {
		key = alias
	}

	if !accepted.Has(key) {
		return classification{}, fault.New(fault.BadInputCode, fmt.Sprintf(
			"unrecognized field in query: %s", expr.Field)).
			WithMetadata(fault.FieldErrorsMetadata{
				expr.Field: []string{"Field is not valid for this resource."},
			})
	}

	return classification{class: classPlain, key: key}, nil
}

func unimplementedOperator(expr Expression) error {
	return fault.New(fault.BadInputCode, fmt.Sprintf(
		"unimplemented operator %s for %s", expr.Op, expr.Field))
}
