package utils

import "strings"

var digitWords = [...]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

// SayDigits spells a number digit by digit for text-to-speech:
// "123456" becomes "one two three four five six".
func SayDigits(number string) string {
	words := make([]string, 0, len(number))
	for _, c := range number {
		if c >= '0' && c <= '9' {
			words = append(words, digitWords[c-'0'])
			continue
		}
		words = append(words, string(c))
	}
	return strings.Join(words, " ")
}

// JoinList reads a list of times back as "17:00, 18:00, 20:00".
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}
