package storage

import "strings"

// DefaultAllowedExtensions are accepted when no configuration overrides them.
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "pdf"}

// AllowList decides which uploads are kept, by file extension.
type AllowList struct {
	extensions map[string]struct{}
}

// NewAllowList builds an allow-list; extensions are matched case-insensitively and may be
// given with or without the leading dot.
func NewAllowList(extensions []string) AllowList {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	return AllowList{extensions: set}
}

// Allowed reports whether name carries an accepted extension. Names without a dot never do.
func (a AllowList) Allowed(name string) bool {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return false
	}
	_, ok := a.extensions[strings.ToLower(name[idx+1:])]
	return ok
}
