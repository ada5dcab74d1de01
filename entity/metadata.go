package entity

import "fmt"

// FlattenMetadata flattens nested resource metadata into dotted keys
// with every value rendered as a string. List values carry no useful
// filter semantics and are skipped.
func FlattenMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	flattenInto(out, "", metadata)
	return out
}

func flattenInto(out map[string]string, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case map[string]any:
			flattenInto(out, key, val)
		case []any:
			continue
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}
