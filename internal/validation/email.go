package validation

import (
	"net/mail"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

var disposableDomains = map[string]struct{}{
	"10minutemail.com":  {},
	"tempmail.org":      {},
	"guerrillamail.com": {},
	"mailinator.com":    {},
	"yopmail.com":       {},
	"temp-mail.org":     {},
	"throwaway.email":   {},
	"trashmail.com":     {},
}

var commonDomains = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"icloud.com",
	"protonmail.com",
	"yandex.com",
}

// EmailCheck is the outcome of ValidateEmail.
type EmailCheck struct {
	Valid      bool     `json:"isValid"`
	Errors     []string `json:"errors,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// ValidateEmail checks the address format, rejects disposable providers and
// suggests a correction for near-misses of common domains.
func ValidateEmail(email string) EmailCheck {
	var check EmailCheck

	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		check.Errors = append(check.Errors, "Invalid email format")
		return check
	}

	at := strings.LastIndex(email, "@")
	local, domain := email[:at], strings.ToLower(email[at+1:])
	if !strings.Contains(domain, ".") {
		check.Errors = append(check.Errors, "Invalid email format")
		return check
	}

	if _, ok := disposableDomains[domain]; ok {
		check.Errors = append(check.Errors, "Disposable email addresses are not allowed")
	}

	if !slices.Contains(commonDomains, domain) {
		for _, common := range commonDomains {
			if levenshtein.ComputeDistance(domain, common) <= 2 {
				check.Suggestion = local + "@" + common
				break
			}
		}
	}

	check.Valid = len(check.Errors) == 0
	return check
}
