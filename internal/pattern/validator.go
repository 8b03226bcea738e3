package pattern

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
)

// ValidateRule checks that a routing rule's match value parses for its match
// type. Rules failing validation are rejected at write time, so the matcher
// never encounters an invalid rule.
func ValidateRule(rule *model.RoutingRule) error {
	if rule == nil {
		return common.NewValidationError("rule", "cannot be nil")
	}
	if strings.TrimSpace(rule.Name) == "" {
		return common.NewValidationError("name", "cannot be empty")
	}
	if !model.ValidFieldType(rule.FieldType) {
		return common.NewValidationError("field_type", "unknown field type "+string(rule.FieldType))
	}
	if !model.ValidMatchType(rule.MatchType) {
		return common.NewValidationError("match_type", "unknown match type "+string(rule.MatchType))
	}
	if strings.TrimSpace(rule.TargetProjectID) == "" {
		return common.NewValidationError("target_project_id", "must be a project id or "+model.TargetAutoDetect)
	}

	// Range matching is only meaningful against the amount, and the amount
	// can only be matched as a range. The pairing is enforced here so the
	// combination is unrepresentable at evaluation time.
	if (rule.MatchType == model.MatchRange) != (rule.FieldType == model.FieldAmountRange) {
		return common.NewValidationError("match_type", "range matching requires the amount_range field and vice versa")
	}

	switch rule.MatchType {
	case model.MatchExact, model.MatchStartsWith, model.MatchEndsWith:
		if strings.TrimSpace(rule.MatchValue) == "" {
			return common.NewValidationError("match_value", "cannot be empty for "+string(rule.MatchType))
		}
	case model.MatchContains:
		if len(ContainsTokens(rule.MatchValue)) == 0 {
			return common.NewValidationError("match_value", "needs at least one non-empty token")
		}
	case model.MatchRegex:
		if _, err := regexp.Compile(rule.MatchValue); err != nil {
			return common.NewValidationError("match_value", "invalid regex: "+err.Error())
		}
	case model.MatchRange:
		if _, _, err := ParseRange(rule.MatchValue); err != nil {
			return err
		}
	}

	return nil
}

// ParseRange parses a "min-max" amount range into decimal bounds.
func ParseRange(value string) (decimal.Decimal, decimal.Decimal, error) {
	minStr, maxStr, found := strings.Cut(value, "-")
	if !found {
		return decimal.Zero, decimal.Zero, common.NewValidationError("match_value", `range must be "min-max"`)
	}

	low, err := decimal.NewFromString(strings.TrimSpace(minStr))
	if err != nil {
		return decimal.Zero, decimal.Zero, common.NewValidationError("match_value", "range minimum is not a number")
	}
	high, err := decimal.NewFromString(strings.TrimSpace(maxStr))
	if err != nil {
		return decimal.Zero, decimal.Zero, common.NewValidationError("match_value", "range maximum is not a number")
	}
	if low.GreaterThan(high) {
		return decimal.Zero, decimal.Zero, common.NewValidationError("match_value", "range minimum exceeds maximum")
	}

	return low, high, nil
}

// ContainsTokens splits a contains match value into its comma-separated
// alternatives, dropping empty tokens.
func ContainsTokens(value string) []string {
	parts := strings.Split(value, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
