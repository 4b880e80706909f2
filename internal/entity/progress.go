package entity

import "sort"

// ProgressSnapshot is the whole progress store in registration order.
type ProgressSnapshot struct {
	order   []string
	records map[string]*UserRecord
}

// NewProgressSnapshot builds a snapshot from records. Records are ordered by
// Seq; ties keep their input order.
func NewProgressSnapshot(records ...*UserRecord) *ProgressSnapshot {
	s := &ProgressSnapshot{records: make(map[string]*UserRecord, len(records))}
	for _, r := range records {
		s.Put(r)
	}
	s.sort()
	return s
}

// Len returns the number of users.
func (s *ProgressSnapshot) Len() int {
	return len(s.order)
}

// Usernames returns usernames in registration order.
func (s *ProgressSnapshot) Usernames() []string {
	return append([]string(nil), s.order...)
}

// Records returns records in registration order.
func (s *ProgressSnapshot) Records() []*UserRecord {
	out := make([]*UserRecord, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.records[name])
	}
	return out
}

// Get looks up a record by username.
func (s *ProgressSnapshot) Get(username string) (*UserRecord, bool) {
	r, ok := s.records[username]
	return r, ok
}

// Put inserts or replaces a record. New usernames are appended.
func (s *ProgressSnapshot) Put(r *UserRecord) {
	r.Normalize()
	if _, ok := s.records[r.Username]; !ok {
		s.order = append(s.order, r.Username)
	}
	s.records[r.Username] = r
}

// NextSeq returns the registration number for a newly created record.
func (s *ProgressSnapshot) NextSeq() int {
	next := 0
	for _, r := range s.records {
		if r.Seq >= next {
			next = r.Seq + 1
		}
	}
	return next
}

func (s *ProgressSnapshot) sort() {
	sort.SliceStable(s.order, func(i, j int) bool {
		return s.records[s.order[i]].Seq < s.records[s.order[j]].Seq
	})
}
