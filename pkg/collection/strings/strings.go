// Package strings provides utility functions for string slices.
package strings

import "strings"

// Contain returns true if the strings include the target.
func Contain(list []string, target string) bool {
	for _, str := range list {
		if str == target {
			return true
		}
	}
	return false
}

// ContainFold returns true if the strings include the target under case folding.
func ContainFold(list []string, target string) bool {
	for _, str := range list {
		if strings.EqualFold(str, target) {
			return true
		}
	}
	return false
}
