// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi, falling back
// to def when the string is empty or unparsable. Query parameters like
// ?page= and ?page_size= arrive as strings and an unusable value should
// select the default page rather than fail the request.
//
// Example:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)
//	size := utils.AtoiDefault(c.Query("page_size"), 20)
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
