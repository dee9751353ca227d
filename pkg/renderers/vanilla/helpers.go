package vanilla

import "strings"

func controlID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return "qf-" + trimmed
}

func labelID(name string) string {
	id := controlID(name)
	if id == "" {
		return ""
	}
	return id + "-label"
}
