package secrets

import (
	"fmt"
	"strings"
)

// Key is a labelled credential. The label is safe to log.
type Key struct {
	Label string
	Value string
}

// LoadKeys resolves a key collection. Entries are separated by new lines or commas and may be
// written as "label=key"; unlabelled entries are named key-1, key-2 and so on. Blank lines and
// lines starting with # are ignored.
func LoadKeys(src Source) ([]Key, error) {
	raw, err := Load(src)
	if err != nil {
		return nil, err
	}

	var keys []Key
	seen := make(map[string]struct{})
	for _, line := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ',' }) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := Key{Value: line}
		if label, value, ok := strings.Cut(line, "="); ok {
			key = Key{Label: strings.TrimSpace(label), Value: strings.TrimSpace(value)}
		}
		if key.Value == "" {
			continue
		}
		if key.Label == "" {
			key.Label = fmt.Sprintf("key-%d", len(keys)+1)
		}
		if _, dup := seen[key.Value]; dup {
			continue
		}
		seen[key.Value] = struct{}{}
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%s contains no keys", strings.TrimSpace(src.Name))
	}
	return keys, nil
}
