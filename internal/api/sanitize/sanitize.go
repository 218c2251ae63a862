package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	descriptionPolicyOnce sync.Once
	descriptionPolicy     *bluemonday.Policy
)

func Text(input string) string {
	return html.EscapeString(strings.TrimSpace(input))
}

// Description strips all but basic formatting from venue-supplied offer
// descriptions before they reach other users' screens.
func Description(input string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return ""
	}
	return getDescriptionPolicy().Sanitize(value)
}

func getDescriptionPolicy() *bluemonday.Policy {
	descriptionPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("b", "i", "em", "strong", "br")
		descriptionPolicy = policy
	})
	return descriptionPolicy
}
