package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// RFC 6238 standard parameters.
const (
	totpDigits = 6
	totpPeriod = 30
)

var secretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

// generateSecretKey returns a new Base32-encoded 160-bit TOTP secret.
func generateSecretKey() (string, error) {
	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrInvalidSecret, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// provisioningURI builds the otpauth:// URI consumed by authenticator
// apps, per the Key Uri Format specification.
func provisioningURI(secret, accountName, issuer string) string {
	label := fmt.Sprintf("%s:%s", url.PathEscape(issuer), url.PathEscape(accountName))

	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	query.Set("algorithm", "SHA1")
	query.Set("digits", fmt.Sprintf("%d", totpDigits))
	query.Set("period", fmt.Sprintf("%d", totpPeriod))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode())
}

// validateTOTP checks a user-supplied code against the secret, accepting
// the previous, current, and next 30-second windows for clock drift.
func validateTOTP(secret, code string) (bool, error) {
	return validateTOTPAt(secret, code, time.Now())
}

func validateTOTPAt(secret, code string, at time.Time) (bool, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !secretKeyRegex.MatchString(secret) {
		return false, ErrInvalidSecret
	}

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return false, errors.Join(ErrInvalidSecret, err)
	}

	code = strings.TrimSpace(code)
	if len(code) != totpDigits {
		return false, nil
	}

	counter := at.Unix() / totpPeriod
	for i := int64(-1); i <= 1; i++ {
		if fmt.Sprintf("%06d", hotp(key, counter+i, totpDigits)) == code {
			return true, nil
		}
	}

	return false, nil
}

// GenerateTOTP returns the code for the current 30-second window. It
// exists for enrollment tooling and tests; production verification goes
// through the MFA service.
func GenerateTOTP(secret string) (string, error) {
	return totpCodeAt(secret, time.Now())
}

// totpCodeAt generates the code for the window containing t.
func totpCodeAt(secret string, t time.Time) (string, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !secretKeyRegex.MatchString(secret) {
		return "", ErrInvalidSecret
	}

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return "", errors.Join(ErrInvalidSecret, err)
	}

	return fmt.Sprintf("%06d", hotp(key, t.Unix()/totpPeriod, totpDigits)), nil
}

// hotp implements RFC 4226 dynamic truncation over HMAC-SHA1.
func hotp(key []byte, counter int64, digits int) int {
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	hash := mac.Sum(nil)

	offset := hash[len(hash)-1] & 0x0f
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]&0xff) << 16) |
		(int(hash[offset+2]&0xff) << 8) |
		int(hash[offset+3]&0xff)

	return code % int(math.Pow10(digits))
}
