package engine

import (
	"fmt"

	"qrisk/internal/model"
)

// counterfactualActions phrases, per flag, the change that would have
// removed the finding. Display-only: nothing here feeds back into the
// score.
var counterfactualActions = map[string]string{
	model.FlagNoHTTPS:            "Serving the page over HTTPS",
	model.FlagAtSymbol:           "Dropping the credentials embedded before the host",
	model.FlagIPHost:             "Hosting on a named domain rather than a bare IP",
	model.FlagDeepSubdomains:     "Flattening the hostname to three subdomains or fewer",
	model.FlagUrgencyKeywords:    "Removing the urgency wording from the path",
	model.FlagHighEntropyHost:    "Using a pronounceable host label",
	model.FlagOverlongURL:        "Shortening the URL below 2048 characters",
	model.FlagShortener:          "Linking the destination directly instead of through a shortener",
	model.FlagRedirectParam:      "Dropping the embedded redirect URL from the query",
	model.FlagSuspiciousTLD:      "Moving to a mainstream top-level domain",
	model.FlagWatchlistTLD:       "Moving to a mainstream top-level domain",
	model.FlagBrandImpersonation: "Using a host that does not imitate a known brand",
	model.FlagBrandPattern:       "Renaming the host away from the qualifier-plus-brand shape",
	model.FlagMixedScript:        "Spelling each host label in a single script",
	model.FlagRTLOverride:        "Removing the bidirectional control characters",
	model.FlagDoubleEncoded:      "Percent-encoding the URL once",
	model.FlagZeroWidth:          "Removing the invisible characters",
	model.FlagIPDecimal:          "Hosting on a named domain rather than a numeric address",
	model.FlagIPHex:              "Hosting on a named domain rather than a hex-encoded address",
	model.FlagIPOctal:            "Hosting on a named domain rather than an octal-encoded address",
	model.FlagMLHighRisk:         "Clearing the strongest individual signals",
}

// annotate fills in the counterfactual for every flag that does not
// already carry one.
func annotate(flags []model.Flag) {
	for i := range flags {
		if flags[i].Counterfactual == "" {
			flags[i].Counterfactual = counterfactualFor(flags[i])
		}
	}
}

func counterfactualFor(f model.Flag) string {
	switch f.ID {
	case model.FlagUnparseable:
		return "A syntactically valid URL would allow a full analysis instead of the malformed-input penalty."
	case model.FlagPolicyBlocked:
		return "Only a change to the organization policy can clear this block."
	case model.FlagPolicyReview:
		return "The organization policy routes this destination to manual review."
	case model.FlagComponentFailure:
		return ""
	}

	action, ok := counterfactualActions[f.ID]
	if !ok {
		return ""
	}
	if f.Points > 0 {
		return fmt.Sprintf("%s would remove +%d from this component's score.", action, f.Points)
	}
	return action + "."
}
