package collection

import "sort"

// Selection is the multi-select "modify mode" sub-state of a collection
// screen: a set of selected membership-row ids. It is owned by a single
// screen and discarded on navigation, so it needs no locking.
type Selection struct {
	active bool
	ids    map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// EnterModify switches modify mode on with an empty set.
func (s *Selection) EnterModify() {
	s.active = true
	s.Clear()
}

// ExitModify leaves modify mode and clears the set.
func (s *Selection) ExitModify() {
	s.active = false
	s.Clear()
}

func (s *Selection) Active() bool {
	return s.active
}

// Toggle flips one item's membership in the set and reports whether the
// item is now selected.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Count() int {
	return len(s.ids)
}

// Selected returns the selected ids in a stable order.
func (s *Selection) Selected() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}
