package monitor

import (
	"strconv"
	"strings"
)

// InfoFields holds key/value pairs parsed from a redis INFO response.
type InfoFields map[string]string

// ParseInfo parses the text of an INFO reply. Section headers and blank
// lines are skipped; malformed lines are ignored.
func ParseInfo(raw string) InfoFields {
	fields := make(InfoFields)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[k] = v
	}
	return fields
}

func (f InfoFields) Get(key string) string { return f[key] }

// Int returns the field as an integer, 0 when absent or non-numeric.
func (f InfoFields) Int(key string) int64 {
	n, err := strconv.ParseInt(f[key], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
