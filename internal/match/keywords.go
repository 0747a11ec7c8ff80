package match

import "github.com/google/uuid"

// SurnameShortcuts is the last-resort lookup for recurring known cases:
// a folded surname mapped straight to a patient ID. Populated by operators,
// consulted only after every other tier has failed.
type SurnameShortcuts map[string]uuid.UUID

// Lookup returns the patient ID bound to any of the given folded words.
func (s SurnameShortcuts) Lookup(words []string) (uuid.UUID, bool) {
	for _, w := range words {
		if id, ok := s[w]; ok {
			return id, true
		}
	}
	return uuid.Nil, false
}
