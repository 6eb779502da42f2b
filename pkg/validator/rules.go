package validator

import (
	"net/url"
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// Required fails on empty strings.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return value != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// ValidEmail checks basic address shape. Deliverability is not verified.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool { return emailRegex.MatchString(value) },
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// MaxLen limits the rune count of a value.
func MaxLen(field, value string, limit int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= limit },
		Error: ValidationError{Field: field, Message: "is too long"},
	}
}

// MinLen requires a minimum rune count.
func MinLen(field, value string, limit int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) >= limit },
		Error: ValidationError{Field: field, Message: "is too short"},
	}
}

// PasswordStrengthConfig tunes StrongPassword requirements.
type PasswordStrengthConfig struct {
	MinLength      int
	MaxLength      int
	MinCharClasses int
}

// DefaultPasswordStrength requires two of the four character classes,
// balancing guessing resistance against sign-up friction.
var DefaultPasswordStrength = PasswordStrengthConfig{
	MinLength:      8,
	MaxLength:      128,
	MinCharClasses: 2,
}

// StrongPassword checks length bounds and character class diversity
// (lower, upper, digit, other).
func StrongPassword(field, value string, cfg PasswordStrengthConfig) Rule {
	return Rule{
		Check: func() bool {
			n := utf8.RuneCountInString(value)
			if n < cfg.MinLength || n > cfg.MaxLength {
				return false
			}

			var lower, upper, digit, other bool
			for _, r := range value {
				switch {
				case unicode.IsLower(r):
					lower = true
				case unicode.IsUpper(r):
					upper = true
				case unicode.IsDigit(r):
					digit = true
				default:
					other = true
				}
			}

			classes := 0
			for _, ok := range []bool{lower, upper, digit, other} {
				if ok {
					classes++
				}
			}
			return classes >= cfg.MinCharClasses
		},
		Error: ValidationError{Field: field, Message: "is too weak"},
	}
}

// ValidPhone accepts E.164-style numbers. Empty values pass so optional
// fields compose with Required explicitly.
func ValidPhone(field, value string) Rule {
	return Rule{
		Check: func() bool { return value == "" || phoneRegex.MatchString(value) },
		Error: ValidationError{Field: field, Message: "must be a valid phone number"},
	}
}

// ValidURL accepts absolute http(s) URLs. Empty values pass.
func ValidURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			u, err := url.Parse(value)
			return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
		},
		Error: ValidationError{Field: field, Message: "must be a valid URL"},
	}
}
