package log

import "sort"

// KV is a map of key-value pairs to be logged.
type KV map[string]any

// kvToArgs converts the first KV into the flat argument list slog
// expects. Keys are sorted so log lines are stable. Extra KV maps are
// ignored; they exist so call sites can omit the argument entirely.
func kvToArgs(keyVals ...KV) []any {
	args := []any{}
	if len(keyVals) == 0 {
		return args
	}

	kv := keyVals[0]
	keys := make([]string, 0, len(kv))
	for key := range kv {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		args = append(args, key, kv[key])
	}
	return args
}

// kvToArgsNs is like kvToArgs but prepends the namespace under the
// "ns" key.
func kvToArgsNs(namespace string, keyVals ...KV) []any {
	return append([]any{"ns", namespace}, kvToArgs(keyVals...)...)
}
