package model

// MentionSet is a frozen snapshot of normalized entity mentions per type.
// It is built once before resolution starts and is only read afterwards, so
// any number of goroutines may call Contains concurrently.
//
// Design decision: The set is passed explicitly to the resolver rather than
// kept in package state. Its fields are unexported and NewMentionSet copies
// its input, so no caller can mutate a snapshot once workers hold it.
type MentionSet struct {
	sets map[EntityType]map[string]struct{}
}

// NewMentionSet builds a snapshot from per-type mention lists.
// Empty strings and types other than the four resolvable ones are ignored.
func NewMentionSet(mentions map[EntityType][]string) *MentionSet {
	ms := &MentionSet{sets: make(map[EntityType]map[string]struct{}, len(MentionOrder))}
	for _, t := range MentionOrder {
		ms.sets[t] = make(map[string]struct{})
	}
	for t, values := range mentions {
		set, ok := ms.sets[t]
		if !ok {
			continue
		}
		for _, v := range values {
			if v == "" {
				continue
			}
			set[v] = struct{}{}
		}
	}
	return ms
}

// Contains reports whether value is a mention of type t.
// A nil MentionSet contains nothing.
func (ms *MentionSet) Contains(t EntityType, value string) bool {
	if ms == nil {
		return false
	}
	_, ok := ms.sets[t][value]
	return ok
}

// Len returns the number of mentions of type t.
func (ms *MentionSet) Len(t EntityType) int {
	if ms == nil {
		return 0
	}
	return len(ms.sets[t])
}

// Empty reports whether the snapshot holds no mentions at all.
func (ms *MentionSet) Empty() bool {
	for _, t := range MentionOrder {
		if ms.Len(t) > 0 {
			return false
		}
	}
	return true
}
