package llm

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/sitka/services/datatypes"
)

// Category is the fixed failure taxonomy the failover engine decides on.
type Category string

const (
	CategoryAuth           Category = "AuthError"
	CategoryQuota          Category = "QuotaOrRateLimit"
	CategoryRegion         Category = "RegionRestricted"
	CategoryTransient      Category = "TransientServer"
	CategorySafety         Category = "ContentSafety"
	CategoryContextTooLong Category = "ContextTooLong"
	CategoryNetwork        Category = "NetworkUnreachable"
	CategoryUnknown        Category = "Unknown"
)

// Classification is the result of mapping one raw backend failure.
type Classification struct {
	Category Category
	Message  string
}

// classifierRule maps message substrings to one category. Rules are
// checked in order; the first rule with any matching needle wins.
type classifierRule struct {
	category Category
	needles  []string
}

// Rule order matters: region restrictions often arrive as 400/403 errors
// whose text would also match the auth needles, so region is checked first.
var classifierRules = []classifierRule{
	{CategoryRegion, []string{
		"user location is not supported",
		"unsupported location",
		"unsupported country",
		"not available in your region",
		"not available in your country",
		"region not supported",
	}},
	{CategoryAuth, []string{
		"status 401",
		"code: 401",
		"unauthorized",
		"invalid api key",
		"invalid x-api-key",
		"incorrect api key",
		"api key not valid",
		"authentication_error",
		"authentication failed",
		"permission_denied",
	}},
	{CategoryQuota, []string{
		"status 429",
		"code: 429",
		"rate limit",
		"rate_limit",
		"quota",
		"resource_exhausted",
		"resource has been exhausted",
		"billing",
		"insufficient balance",
	}},
	{CategoryContextTooLong, []string{
		"context length",
		"context_length_exceeded",
		"maximum context",
		"context window",
		"too many tokens",
		"prompt is too long",
		"input token count",
	}},
	{CategorySafety, []string{
		"content_filter",
		"content filter",
		"content management policy",
		"blocked by safety",
		"safety settings",
		"prohibited_content",
		"flagged as potentially violating",
	}},
	{CategoryTransient, []string{
		"status 500",
		"status 502",
		"status 503",
		"status 529",
		"code: 500",
		"code: 502",
		"code: 503",
		"internal server error",
		"internal error",
		"server_error",
		"overloaded",
		"service unavailable",
		"bad gateway",
	}},
	{CategoryNetwork, []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"dial tcp",
		"i/o timeout",
		"context deadline exceeded",
		"tls handshake",
		"eof",
	}},
}

// backendLabel is the user-facing backend name per kind.
var backendLabel = map[datatypes.Kind]string{
	datatypes.KindOpenAI:    "OpenAI",
	datatypes.KindAnthropic: "Anthropic",
	datatypes.KindGemini:    "Gemini",
	datatypes.KindDeepSeek:  "DeepSeek",
}

// Classify maps a raw backend failure into the fixed taxonomy plus a
// stable user-facing message.
//
// # Description
//
// Total and pure: it never fails to produce a category and has no side
// effects, so it stays independently testable. Matching is a substring
// heuristic over the error text; unrecognized errors map to Unknown with a
// backend-named fallback message. New backend variants only need new
// needles here, never new control flow in the engine.
func Classify(err error, backend datatypes.Kind) Classification {
	label, ok := backendLabel[backend]
	if !ok {
		label = string(backend)
	}
	if err == nil {
		return Classification{CategoryUnknown, fmt.Sprintf("%s failed for an unknown reason.", label)}
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range classifierRules {
		for _, needle := range rule.needles {
			if strings.Contains(msg, needle) {
				return Classification{rule.category, userMessage(rule.category, label)}
			}
		}
	}
	return Classification{CategoryUnknown, fmt.Sprintf("%s failed for an unknown reason. Check the logs for details.", label)}
}

// userMessage renders the stable, backend-agnostic phrasing per category.
func userMessage(c Category, label string) string {
	switch c {
	case CategoryAuth:
		return fmt.Sprintf("The %s API key was rejected. Check the credential in Settings.", label)
	case CategoryQuota:
		return fmt.Sprintf("%s reports a rate limit or exhausted quota. Try again later or check your plan.", label)
	case CategoryRegion:
		return fmt.Sprintf("%s is not available from your current region.", label)
	case CategoryTransient:
		return fmt.Sprintf("%s had a temporary server problem. Trying again usually helps.", label)
	case CategorySafety:
		return fmt.Sprintf("%s declined the request for content policy reasons.", label)
	case CategoryContextTooLong:
		return fmt.Sprintf("The request is too long for %s. Shorten the note or selection.", label)
	case CategoryNetwork:
		return fmt.Sprintf("Could not reach %s. Check your network connection.", label)
	default:
		return fmt.Sprintf("%s failed for an unknown reason.", label)
	}
}
