package mcpserver

// Argument extraction helpers, grounded on internal/mcp/args.go's
// map[string]interface{} parsing idiom, extended to fail closed: spec.md
// §6 requires unknown or out-of-range fields to fail with InvalidArgument
// before any side effect, where the teacher's parseIntArg/parseClampedInt
// silently default or clamp instead.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codegraph-dev/codegraph/internal/errs"
)

func invalidArg(format string, a ...any) *errs.Error {
	return errs.New(errs.KindQueryValidation, fmt.Sprintf(format, a...))
}

// requireKnownKeys fails if argsMap contains any key outside allowed,
// per spec.md §6: "Unknown or out-of-range fields fail with
// InvalidArgument before any side effect."
func requireKnownKeys(argsMap map[string]interface{}, allowed ...string) error {
	set := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		set[k] = true
	}
	var unknown []string
	for k := range argsMap {
		if !set[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return invalidArg("unknown argument(s): %s", strings.Join(unknown, ", "))
}

func argString(argsMap map[string]interface{}, key string, required bool) (string, error) {
	val, ok := argsMap[key]
	if !ok {
		if required {
			return "", invalidArg("%s is required", key)
		}
		return "", nil
	}
	str, ok := val.(string)
	if !ok {
		return "", invalidArg("%s must be a string", key)
	}
	if required && strings.TrimSpace(str) == "" {
		return "", invalidArg("%s cannot be empty", key)
	}
	return str, nil
}

func argMinLen(s, key string, min int) error {
	if len(s) < min {
		return invalidArg("%s must be at least %d characters", key, min)
	}
	return nil
}

func argBool(argsMap map[string]interface{}, key string, defaultVal bool) (bool, error) {
	val, ok := argsMap[key]
	if !ok {
		return defaultVal, nil
	}
	b, ok := val.(bool)
	if !ok {
		return false, invalidArg("%s must be a boolean", key)
	}
	return b, nil
}

func argFloat(argsMap map[string]interface{}, key string, defaultVal float64) (float64, error) {
	val, ok := argsMap[key]
	if !ok {
		return defaultVal, nil
	}
	f, ok := val.(float64)
	if !ok {
		return 0, invalidArg("%s must be a number", key)
	}
	return f, nil
}

// argIntRange parses an integer field and fails if it falls outside
// [min, max], rather than silently clamping.
func argIntRange(argsMap map[string]interface{}, key string, defaultVal, min, max int) (int, error) {
	val, ok := argsMap[key]
	if !ok {
		return defaultVal, nil
	}
	f, ok := val.(float64)
	if !ok {
		return 0, invalidArg("%s must be a number", key)
	}
	n := int(f)
	if n < min || n > max {
		return 0, invalidArg("%s must be between %d and %d", key, min, max)
	}
	return n, nil
}

// argFloatRange parses a float field and fails if it falls outside
// [min, max].
func argFloatRange(argsMap map[string]interface{}, key string, defaultVal, min, max float64) (float64, error) {
	val, ok := argsMap[key]
	if !ok {
		return defaultVal, nil
	}
	f, ok := val.(float64)
	if !ok {
		return 0, invalidArg("%s must be a number", key)
	}
	if f < min || f > max {
		return 0, invalidArg("%s must be between %v and %v", key, min, max)
	}
	return f, nil
}

func argStringArray(argsMap map[string]interface{}, key string) ([]string, error) {
	val, ok := argsMap[key]
	if !ok {
		return nil, nil
	}
	arr, ok := val.([]interface{})
	if !ok {
		return nil, invalidArg("%s must be an array of strings", key)
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		str, ok := item.(string)
		if !ok {
			return nil, invalidArg("%s must be an array of strings", key)
		}
		out = append(out, str)
	}
	return out, nil
}

// argEnum parses a string field and fails unless it is one of allowed.
func argEnum(argsMap map[string]interface{}, key, defaultVal string, allowed ...string) (string, error) {
	val, err := argString(argsMap, key, false)
	if err != nil {
		return "", err
	}
	if val == "" {
		return defaultVal, nil
	}
	for _, a := range allowed {
		if val == a {
			return val, nil
		}
	}
	return "", invalidArg("%s must be one of %s", key, strings.Join(allowed, ", "))
}

func argMap(argsMap map[string]interface{}, key string) (map[string]interface{}, error) {
	val, ok := argsMap[key]
	if !ok {
		return nil, nil
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, invalidArg("%s must be an object", key)
	}
	return m, nil
}

func argsMapFrom(raw interface{}) (map[string]interface{}, error) {
	argsMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, invalidArg("arguments must be a JSON object")
	}
	return argsMap, nil
}
