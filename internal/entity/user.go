package entity

import (
	"sort"
	"strconv"
	"strings"
)

// Sex enumerates the values accepted by the metadata form.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexOther  Sex = "Other"
)

// Sexes lists the selectable values in display order.
var Sexes = []Sex{SexMale, SexFemale, SexOther}

const (
	MinAge = 10
	MaxAge = 120

	DefaultAge = 18
)

// Metadata holds the self-reported profile of a contributor. Every field is
// optional until the metadata form is saved.
type Metadata struct {
	Name    string `json:"name,omitempty"`
	Sex     Sex    `json:"sex,omitempty"`
	Age     int    `json:"age,omitempty"`
	Gmail   string `json:"gmail,omitempty"`
	Country string `json:"country,omitempty"`
}

// IsZero reports whether the metadata form was never saved.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Normalize trims free-text fields.
func (m *Metadata) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Gmail = strings.TrimSpace(m.Gmail)
	m.Country = strings.TrimSpace(m.Country)
}

// Validate checks the enumerated and ranged fields.
func (m Metadata) Validate() error {
	if !ValidSex(m.Sex) {
		return ErrInvalidSex
	}
	if m.Age < MinAge || m.Age > MaxAge {
		return ErrInvalidAge
	}
	return nil
}

// ValidSex reports whether s is one of Sexes.
func ValidSex(s Sex) bool {
	for _, v := range Sexes {
		if v == s {
			return true
		}
	}
	return false
}

// TranslationEntry is one submitted translation together with the source
// text that was on screen when it was submitted.
type TranslationEntry struct {
	English     string `json:"English"`
	Translation string `json:"Translation"`
	Timestamp   string `json:"Timestamp"`
}

// UserRecord is the persisted progress of a single contributor.
type UserRecord struct {
	Username     string                      `json:"-"`
	Seq          int                         `json:"seq"`
	Metadata     Metadata                    `json:"metadata"`
	Assigned     []int                       `json:"assigned"`
	Translations map[string]TranslationEntry `json:"translations"`
	Index        int                         `json:"index"`
}

// NewUserRecord returns an empty record with the given registration number.
func NewUserRecord(username string, seq int) *UserRecord {
	r := &UserRecord{Username: username, Seq: seq}
	r.Normalize()
	return r
}

// Normalize fills containers that older files may not carry.
func (r *UserRecord) Normalize() {
	if r.Assigned == nil {
		r.Assigned = []int{}
	}
	if r.Translations == nil {
		r.Translations = map[string]TranslationEntry{}
	}
	if r.Index < 0 {
		r.Index = 0
	}
	if r.Index > len(r.Assigned) {
		r.Index = len(r.Assigned)
	}
}

// Completed reports whether the cursor has moved past the assigned range.
func (r *UserRecord) Completed() bool {
	return r.Index >= len(r.Assigned)
}

// CurrentSentence returns the sentence index under the cursor.
func (r *UserRecord) CurrentSentence() (int, bool) {
	if r.Completed() {
		return 0, false
	}
	return r.Assigned[r.Index], true
}

// TranslatedCount is the number of distinct submitted indices.
func (r *UserRecord) TranslatedCount() int {
	return len(r.Translations)
}

// Progress returns the completion percentage rounded to two decimals, or 0
// when nothing is assigned.
func (r *UserRecord) Progress() float64 {
	return Percentage(r.TranslatedCount(), len(r.Assigned))
}

// SortedTranslationKeys returns the translation keys in ascending numeric
// order; non-numeric keys sort last, lexically.
func (r *UserRecord) SortedTranslationKeys() []string {
	keys := make([]string, 0, len(r.Translations))
	for k := range r.Translations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// Clone returns a deep copy.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Assigned = append([]int{}, r.Assigned...)
	c.Translations = make(map[string]TranslationEntry, len(r.Translations))
	for k, v := range r.Translations {
		c.Translations[k] = v
	}
	return &c
}

// NormalizeUsername trims surrounding whitespace; case is preserved.
func NormalizeUsername(name string) string {
	return strings.TrimSpace(name)
}

// Percentage computes part/total*100 rounded to two decimals, 0 when total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	v := float64(part) / float64(total) * 100
	return float64(int64(v*100+0.5)) / 100
}
