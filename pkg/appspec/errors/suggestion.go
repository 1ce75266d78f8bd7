package errors

import (
	"fmt"
	"strings"
)

// SuggestFieldName suggests a known field name when an unknown key is used.
// It uses Levenshtein distance to find the closest match.
func SuggestFieldName(unknown string, validFields []string) string {
	if len(validFields) == 0 {
		return ""
	}

	if best, ok := closest(unknown, validFields); ok {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}

	if len(validFields) > 5 {
		return fmt.Sprintf("Valid fields include: %s, ...", strings.Join(validFields[:5], ", "))
	}
	return fmt.Sprintf("Valid fields: %s", strings.Join(validFields, ", "))
}

// SuggestEnumValue suggests an allowed value when an enum field is misspelled.
func SuggestEnumValue(unknown string, allowed []string) string {
	if len(allowed) == 0 {
		return ""
	}

	if best, ok := closest(unknown, allowed); ok {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}

	return fmt.Sprintf("Allowed values: %s", strings.Join(allowed, ", "))
}

// SuggestMissingField suggests adding a required field.
func SuggestMissingField(fieldName string, exampleValue string) string {
	if exampleValue != "" {
		return fmt.Sprintf("Add '%s: %s'", fieldName, exampleValue)
	}
	return fmt.Sprintf("Add '%s'", fieldName)
}

// closest returns the candidate nearest to s when it is within 4 edits.
func closest(s string, candidates []string) (string, bool) {
	minDistance := 1000
	var bestMatch string

	for _, c := range candidates {
		dist := levenshteinDistance(s, c)
		if dist < minDistance {
			minDistance = dist
			bestMatch = c
		}
	}

	return bestMatch, minDistance < 5
}

// levenshteinDistance computes the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1 := len(s1)
	len2 := len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // Deletion
				matrix[i][j-1]+1,      // Insertion
				matrix[i-1][j-1]+cost, // Substitution
			)
		}
	}

	return matrix[len1][len2]
}
