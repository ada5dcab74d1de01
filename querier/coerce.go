package querier

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/thisisjab/telemeter/fault"
)

var (
	trueTokens  = []string{"1", "t", "true", "on", "y", "yes"}
	falseTokens = []string{"0", "f", "false", "off", "n", "no"}
)

// CoerceValue converts a metadata expression's raw value into the
// declared data type. When no type is declared the value is parsed as
// a native literal on a best-effort basis; if that fails the value
// stays a plain string, which is logged but is not an error.
func (c *Compiler) CoerceValue(expr Expression) (any, error) {
	if expr.Type == "" {
		v, ok := inferLiteral(expr.Value)
		if !ok {
			c.logger.Debug("failed to convert metadata value automatically", "value", expr.Value)
			return expr.Value, nil
		}
		return v, nil
	}

	switch expr.Type {
	case TypeInteger:
		v, err := strconv.ParseInt(expr.Value, 10, 64)
		if err != nil {
			return nil, coercionValueFault(expr)
		}
		return v, nil

	case TypeFloat:
		v, err := strconv.ParseFloat(expr.Value, 64)
		if err != nil {
			return nil, coercionValueFault(expr)
		}
		return v, nil

	case TypeBoolean:
		v, ok := boolFromString(expr.Value)
		if !ok {
			return nil, coercionValueFault(expr)
		}
		return v, nil

	case TypeString:
		return expr.Value, nil

	default:
		return nil, fault.New(fault.BadInputCode, fmt.Sprintf(
			"The data type %s is not supported. The supported data type list is: integer, float, boolean and string.",
			expr.Type))
	}
}

func coercionValueFault(expr Expression) error {
	return fault.New(fault.BadInputCode, fmt.Sprintf(
		"Failed to convert the metadata value %s to the expected data type %s.",
		expr.Value, expr.Type))
}

// boolFromString parses a truthy/falsy token, case-insensitively.
func boolFromString(value string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, t := range trueTokens {
		if v == t {
			return true, true
		}
	}
	for _, t := range falseTokens {
		if v == t {
			return false, true
		}
	}
	return false, false
}

// inferLiteral attempts to read value as a native scalar or a JSON
// sequence/mapping literal.
func inferLiteral(value string) (any, bool) {
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v, true
	}
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return v, true
	}

	switch strings.ToLower(value) {
	case "true":
		return true, true
	case "false":
		return false, true
	}

	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v, true
		}
	}

	return nil, false
}
