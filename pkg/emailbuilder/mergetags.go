package emailbuilder

import (
	"fmt"
	"regexp"
	"strings"
)

// Merge tags are {{key}} placeholders in author-written text. Resolution
// substitutes known keys and leaves unknown tags untouched so the author can
// spot them in the output. Resolving already-resolved text is a no-op.

var mergeTagPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// protectMergeTags wraps every {{key}} token in a raw block so a Liquid pass
// emits it verbatim instead of evaluating it as an output expression. Tags
// the merge-tag resolver cannot substitute must stay visible in the output.
func protectMergeTags(text string) string {
	return mergeTagPattern.ReplaceAllString(text, "{% raw %}$0{% endraw %}")
}

// ResolveMergeTags substitutes {{key}} placeholders from the given data map.
// Unknown keys stay as literal {{key}} text.
func ResolveMergeTags(text string, data map[string]string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return mergeTagPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := mergeTagPattern.FindStringSubmatch(match)[1]
		if value, ok := data[key]; ok {
			return value
		}
		return match
	})
}

// ESPID identifies an email service provider for tag-syntax translation.
type ESPID string

const (
	ESPMailchimp       ESPID = "mailchimp"
	ESPCampaignMonitor ESPID = "campaign-monitor"
	ESPSendGrid        ESPID = "sendgrid"
	ESPHubSpot         ESPID = "hubspot"
)

// espKeyTables map recognized merge-tag keys to each provider's own
// placeholder name. Keys outside the table keep their {{key}} form.
var espKeyTables = map[ESPID]map[string]string{
	ESPMailchimp: {
		"firstName": "FNAME",
		"lastName":  "LNAME",
		"email":     "EMAIL",
		"phone":     "PHONE",
		"company":   "COMPANY",
	},
	ESPCampaignMonitor: {
		"firstName": "firstname",
		"lastName":  "lastname",
		"email":     "email",
		"company":   "company",
	},
	ESPSendGrid: {
		"firstName": "first_name",
		"lastName":  "last_name",
		"email":     "email",
		"phone":     "phone",
	},
	ESPHubSpot: {
		"firstName": "contact.firstname",
		"lastName":  "contact.lastname",
		"email":     "contact.email",
		"company":   "company.name",
	},
}

// espWrap renders a provider-native placeholder for a translated key.
func espWrap(esp ESPID, key string) string {
	switch esp {
	case ESPMailchimp:
		return fmt.Sprintf("*|%s|*", key)
	case ESPCampaignMonitor:
		return fmt.Sprintf("[%s,fallback=]", key)
	case ESPSendGrid:
		return fmt.Sprintf("%%%s%%", key)
	case ESPHubSpot:
		return fmt.Sprintf("{{ %s }}", key)
	default:
		return ""
	}
}

// TranslateESPTags rewrites recognized {{key}} placeholders into the target
// provider's placeholder syntax instead of substituting a literal value.
// Unknown espID values and unrecognized keys leave the original {{key}}
// syntax in place.
func TranslateESPTags(text string, esp ESPID) string {
	table, ok := espKeyTables[esp]
	if !ok || !strings.Contains(text, "{{") {
		return text
	}
	return mergeTagPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := mergeTagPattern.FindStringSubmatch(match)[1]
		if espKey, ok := table[key]; ok {
			return espWrap(esp, espKey)
		}
		return match
	})
}

// KnownESP reports whether the id has a translation table.
func KnownESP(esp ESPID) bool {
	_, ok := espKeyTables[esp]
	return ok
}

// MergeTagDefaults collects the declared default values of a template's
// merge tags, ready to be overlaid with session-provided live data.
func MergeTagDefaults(vars []Variable) map[string]string {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		if v.DefaultValue != "" {
			out[v.Key] = v.DefaultValue
		}
	}
	return out
}
