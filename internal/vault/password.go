// password.go implements the password generator and strength checker. Both
// are pure helpers: they touch neither the store nor the codec, but they are
// part of the vault surface and sit behind the same session authentication.
package vault

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{};:,.<>?"

	allChars = lowerChars + upperChars + digitChars + symbolChars

	// DefaultGeneratedLength is used when the caller does not ask for a
	// specific length.
	DefaultGeneratedLength = 16

	// minGeneratedLength is the smallest length that can satisfy the
	// four-character-class guarantee.
	minGeneratedLength = 4

	// MaxStrengthScore is the highest score CheckStrength can award.
	MaxStrengthScore = 6
)

var (
	hasLower  = regexp.MustCompile(`[a-z]`)
	hasUpper  = regexp.MustCompile(`[A-Z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
	hasSymbol = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// GeneratePassword produces a random password of the requested length,
// guaranteed to contain at least one lowercase letter, one uppercase letter,
// one digit, and one symbol. The guaranteed characters are shuffled into
// random positions so their placement is not predictable. length == 0 means
// DefaultGeneratedLength; length < 4 cannot satisfy the guarantee and is
// rejected.
func GeneratePassword(length int) (string, error) {
	if length == 0 {
		length = DefaultGeneratedLength
	}
	if length < minGeneratedLength {
		return "", NewValidationError("password length must be at least 4")
	}

	password := make([]byte, 0, length)

	// One pick from each class, then uniform picks from the full alphabet.
	for _, class := range []string{lowerChars, upperChars, digitChars, symbolChars} {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}
	for len(password) < length {
		c, err := randomChar(allChars)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}

	// Fisher-Yates with crypto/rand so the class-guaranteed characters do
	// not cluster at the front.
	for i := len(password) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		password[i], password[j] = password[j], password[i]
	}

	return string(password), nil
}

func randomChar(alphabet string) (byte, error) {
	i, err := randomInt(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

// randomInt returns a uniform random int in [0, max) without modulo bias.
func randomInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// StrengthReport is the result of CheckStrength.
type StrengthReport struct {
	Score    int      `json:"score"`
	Feedback []string `json:"feedback"`
}

// strengthCriteria are evaluated in a fixed order so feedback is stable
// across calls.
var strengthCriteria = []struct {
	message string
	passes  func(string) bool
}{
	{"use at least 8 characters", func(p string) bool { return len(p) >= 8 }},
	{"add an uppercase letter", func(p string) bool { return hasUpper.MatchString(p) }},
	{"add a lowercase letter", func(p string) bool { return hasLower.MatchString(p) }},
	{"add a digit", func(p string) bool { return hasDigit.MatchString(p) }},
	{"add a symbol", func(p string) bool { return hasSymbol.MatchString(p) }},
	{"use at least 12 characters", func(p string) bool { return len(p) >= 12 }},
}

// CheckStrength scores a password 0-6, one point per satisfied criterion,
// and lists every failed criterion in fixed order. A perfect score returns
// the single-element ["strong"] sentinel instead of an empty list so clients
// render the feedback list directly, so it is never empty.
func CheckStrength(password string) StrengthReport {
	report := StrengthReport{Feedback: []string{}}
	for _, criterion := range strengthCriteria {
		if criterion.passes(password) {
			report.Score++
		} else {
			report.Feedback = append(report.Feedback, criterion.message)
		}
	}
	if report.Score == MaxStrengthScore {
		report.Feedback = []string{"strong"}
	}
	return report
}
