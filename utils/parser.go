package utils

import (
	"log"
	"regexp"
	"strconv"
	"strings"
)

// priceRegex finds the first number in a localized price string.
// It handles grouped integers (12,800), decimals (119.00) and full-width yen marks.
var priceRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// ParsePrice cleans a price string and converts it to a float64.
// Strings like "¥12,800", "12,800円 (税込)" and "11,200 yen" all parse.
func ParsePrice(priceStr string) float64 {
	if priceStr == "" {
		return 0.0
	}

	// 1. Find the first number-like pattern in the string.
	foundPrice := priceRegex.FindString(priceStr)
	if foundPrice == "" {
		return 0.0
	}

	// 2. Remove grouping commas.
	cleanedStr := strings.ReplaceAll(foundPrice, ",", "")

	// 3. Convert to float64.
	price, err := strconv.ParseFloat(cleanedStr, 64)
	if err != nil {
		log.Printf("ParsePrice: Failed to parse '%s' from original string '%s': %v", cleanedStr, priceStr, err)
		return 0.0
	}

	return price
}

// MatchGroup returns the first capture group of re in s, trimmed, or "".
func MatchGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
