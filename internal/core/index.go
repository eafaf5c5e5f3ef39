package core

import "strings"

// EntityIndex maps codes to entities for one run.
// It is never mutated after BuildEntityIndex returns.
type EntityIndex struct {
	byCode map[string]Entity
}

// BuildEntityIndex indexes entities by code.
//
// Entities without a code are skipped. When two entities share a code the one
// appearing later in the slice wins; existing photo attachments depend on this
// tie-break so it must not change.
func BuildEntityIndex(entities []Entity) *EntityIndex {
	idx := &EntityIndex{byCode: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		code := normalizeCode(e.Code)
		if code == "" {
			continue
		}
		idx.byCode[code] = e
	}
	return idx
}

// Get returns the entity registered under code.
func (idx *EntityIndex) Get(code string) (Entity, bool) {
	if idx == nil {
		return Entity{}, false
	}
	e, ok := idx.byCode[normalizeCode(code)]
	return e, ok
}

// Len returns the number of distinct codes in the index.
func (idx *EntityIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byCode)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
