package config

import "strings"

// ParseMappings splits a comma separated "source->target" list. Entries that
// lack the arrow or have an empty side are returned in dropped.
func ParseMappings(value string) (mappings []PathMapping, dropped []string) {
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		source, target, ok := strings.Cut(entry, "->")
		if !ok {
			dropped = append(dropped, entry)
			continue
		}
		mapping, ok := normalizeMapping(source, target)
		if !ok {
			dropped = append(dropped, entry)
			continue
		}
		mappings = append(mappings, mapping)
	}
	return mappings, dropped
}

func normalizeMapping(source, target string) (PathMapping, bool) {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" {
		return PathMapping{}, false
	}
	return PathMapping{Source: ensureLeadingSlash(source), Target: ensureLeadingSlash(target)}, true
}

func ensureLeadingSlash(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
