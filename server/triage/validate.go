package triage

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of validating one raw answer. When OK is false, Hint
// carries a user-facing correction hint and Normalized echoes the cleaned
// input.
type Result struct {
	OK         bool
	Normalized string
	Hint       string
}

// ValidateFunc normalizes and accepts or rejects one raw natural-language
// answer. Implementations are pure: same input, same output.
type ValidateFunc func(raw string) Result

var (
	punctuationRegexp = regexp.MustCompile(`[.,!?;:]`)
	lettersRegexp     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	digitsRegexp      = regexp.MustCompile(`\d+`)
)

func accepted(normalized string) Result {
	return Result{OK: true, Normalized: normalized}
}

func rejected(normalized, hint string) Result {
	return Result{Normalized: normalized, Hint: hint}
}

// validateName strips punctuation, requires at least two letter/space
// characters, and canonicalizes to title case.
func validateName(raw string) Result {
	cleaned := punctuationRegexp.ReplaceAllString(strings.TrimSpace(raw), "")
	if utf8.RuneCountInString(cleaned) < 2 {
		return rejected(cleaned, "Please provide a name with at least 2 characters.")
	}
	if !lettersRegexp.MatchString(cleaned) {
		return rejected(cleaned, "Please provide a name using only letters.")
	}
	words := strings.Fields(cleaned)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return accepted(strings.Join(words, " "))
}

// validateAge extracts the first contiguous digit run and requires a value
// in [0, 150]. The normalized value is the parsed integer as text.
func validateAge(raw string) Result {
	digits := digitsRegexp.FindString(raw)
	if digits == "" {
		return rejected(raw, "Please provide your age as a number.")
	}
	age, err := strconv.Atoi(digits)
	if err != nil {
		return rejected(raw, "Please provide a valid age.")
	}
	if age < 0 || age > 150 {
		return rejected(raw, "Please provide an age between 0 and 150.")
	}
	return accepted(strconv.Itoa(age))
}

// validateGender matches case-insensitive substrings. "female" is checked
// before "male" because the latter is a substring of the former.
func validateGender(raw string) Result {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(lower, "female"):
		return accepted("Female")
	case strings.Contains(lower, "male"):
		return accepted("Male")
	case strings.Contains(lower, "other"),
		strings.Contains(lower, "non-binary"),
		strings.Contains(lower, "nonbinary"):
		return accepted("Other")
	default:
		return rejected(raw, "Please say 'male', 'female', or 'other'.")
	}
}

// validateSymptoms accepts any trimmed text of at least 10 characters.
func validateSymptoms(raw string) Result {
	cleaned := strings.TrimSpace(raw)
	if utf8.RuneCountInString(cleaned) < 10 {
		return rejected(cleaned, "Please describe your symptoms in more detail.")
	}
	return accepted(cleaned)
}

var (
	positiveWords = []string{"yes", "yeah", "yep", "yup", "sure", "definitely"}
	negativeWords = []string{"no", "nope", "nah", "not"}
)

// validateYesNo matches keyword substrings after stripping punctuation.
// Positive words are checked before negative words, so an utterance
// containing both (e.g. "no, yeah actually yes") normalizes to "Yes".
// Revisit-worthy policy, but it matches the shipped behavior.
func validateYesNo(raw string) Result {
	cleaned := punctuationRegexp.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "")
	for _, word := range positiveWords {
		if strings.Contains(cleaned, word) {
			return accepted("Yes")
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(cleaned, word) {
			return accepted("No")
		}
	}
	return rejected(raw, "Please answer with 'yes' or 'no'.")
}
