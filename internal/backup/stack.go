package backup

// DefaultCapacity is the number of deletions that can be undone.
const DefaultCapacity = 10

// Stack is a bounded list of entries ordered oldest first. Pushing beyond the
// capacity evicts the oldest entry for good. Stack does no locking of its own;
// Coordinator serializes access.
type Stack struct {
	entries  []Entry
	capacity int
}

// NewStack returns an empty stack. A capacity below 1 selects DefaultCapacity.
func NewStack(capacity int) *Stack {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Stack{entries: make([]Entry, 0, capacity+1), capacity: capacity}
}

// Push appends e. When that overflows the capacity the oldest entry is
// dropped and returned with ok set.
func (s *Stack) Push(e Entry) (evicted Entry, ok bool) {
	s.entries = append(s.entries, e)
	if len(s.entries) <= s.capacity {
		return Entry{}, false
	}
	evicted = s.entries[0]
	s.entries = append(s.entries[:0], s.entries[1:]...)
	return evicted, true
}

// Find returns the entry with the given id.
func (s *Stack) Find(id string) (Entry, bool) {
	if i := s.index(id); i >= 0 {
		return s.entries[i].clone(), true
	}
	return Entry{}, false
}

// Remove deletes the entry with the given id wherever it sits.
func (s *Stack) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

// Entries returns a copy of the entries, oldest first.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.clone()
	}
	return out
}

func (s *Stack) Len() int { return len(s.entries) }

func (s *Stack) Cap() int { return s.capacity }

func (s *Stack) index(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
