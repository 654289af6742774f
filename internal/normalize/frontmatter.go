package normalize

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// StripFrontMatter removes a leading YAML front matter block (between ---
// delimiters) from markdown exports and returns the remaining body together
// with the decoded metadata. Content without a valid block is returned as is.
func StripFrontMatter(data []byte) (string, map[string]any) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return string(data), nil
	}

	var meta map[string]any
	if err := yaml.Unmarshal(rest[:idx], &meta); err != nil {
		return string(data), nil
	}

	body := rest[idx+1+len(delim):]
	return strings.TrimLeft(string(body), "\n\r"), meta
}
