package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strings"
)

// Required fails on empty or whitespace-only strings.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: FieldError{Field: field, Message: "field is required"},
	}
}

// MaxLen fails when value is longer than max bytes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)},
	}
}

// OneOf fails when value is not in allowed.
func OneOf[T ~string](field string, value T, allowed ...T) Rule {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: FieldError{Field: field, Message: "must be one of: " + strings.Join(names, ", ")},
	}
}

// AbsoluteURL fails unless value is an absolute http or https URL.
func AbsoluteURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.ParseRequestURI(strings.TrimSpace(value))
			if err != nil || u.Host == "" {
				return false
			}
			return u.Scheme == "https" || u.Scheme == "http"
		},
		Error: FieldError{Field: field, Message: "must be an absolute http(s) URL"},
	}
}

// Email fails unless value is a bare address with a dotted domain.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != strings.TrimSpace(value) {
				return false
			}
			_, domain, ok := strings.Cut(addr.Address, "@")
			return ok && strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
		},
		Error: FieldError{Field: field, Message: "must be a valid email address"},
	}
}
