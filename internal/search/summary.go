package search

import "strings"

// PetSummary flattens a listing's descriptive fields into the single text
// blob the index tokenizes. Field order is irrelevant to scoring (token
// sets), but keeping name and species first makes the output readable in
// tests and debug logs.
func PetSummary(name, species, breed, description string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{name, species, breed, description} {
		if t := strings.TrimSpace(p); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
