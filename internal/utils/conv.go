package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// ClampLimit parses a ?limit= value, falling back to def and capping at upper.
func ClampLimit(s string, def, upper int) int {
	n := StringToInt(s)
	if n <= 0 {
		return def
	}
	if n > upper {
		return upper
	}
	return n
}
