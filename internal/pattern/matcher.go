// Package pattern provides rule matching, rule validation, and the
// similarity-based confidence scorer for transaction routing.
package pattern

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/buildledger/ledgerroute/internal/model"
	"github.com/buildledger/ledgerroute/internal/service"
)

// projectCodeGroup is the capture-group name a regex rule uses to mark the
// text that identifies the target project for auto-detect resolution.
const projectCodeGroup = "project_code"

// MatchResult is the outcome of evaluating one rule against one transaction.
// A matched rule with a nil ResolvedProjectID fired but could not complete
// its auto-detect lookup; the transaction is claimed but stays unrouted.
type MatchResult struct {
	ResolvedProjectID *string
	ExtractedCode     string
	Matched           bool
}

// Matcher evaluates routing rules against transactions. Regex patterns are
// compiled once when the rule set is loaded and cached by rule id.
type Matcher struct {
	compiledRegex map[int64]*regexp.Regexp
	directory     service.ProjectDirectory
	lookupTimeout time.Duration
}

// NewMatcher creates a matcher for the given rule set. Rules reach the
// matcher only after write-time validation, so compilation failures here are
// unexpected and the offending rule is simply left out of the cache.
func NewMatcher(rules []model.RoutingRule, directory service.ProjectDirectory, lookupTimeout time.Duration) *Matcher {
	m := &Matcher{
		compiledRegex: make(map[int64]*regexp.Regexp),
		directory:     directory,
		lookupTimeout: lookupTimeout,
	}

	for _, rule := range rules {
		if rule.MatchType == model.MatchRegex {
			if re, err := regexp.Compile(rule.MatchValue); err == nil {
				m.compiledRegex[rule.ID] = re
			} else {
				slog.Error("Stored rule has invalid regex, skipping",
					"rule_id", rule.ID,
					"error", err)
			}
		}
	}

	return m
}

// Match evaluates a single rule against a transaction and resolves the target
// project when the rule fires.
func (m *Matcher) Match(ctx context.Context, rule model.RoutingRule, txn model.Transaction) (MatchResult, error) {
	matched, extracted, err := m.evaluate(rule, txn)
	if err != nil {
		return MatchResult{}, err
	}
	if !matched {
		return MatchResult{}, nil
	}

	if !rule.IsAutoDetect() {
		target := rule.TargetProjectID
		return MatchResult{Matched: true, ResolvedProjectID: &target}, nil
	}

	return m.resolveAutoDetect(ctx, rule, extracted)
}

// evaluate applies the rule's match semantics to the extracted field.
// The second return value is the text used for auto-detect resolution.
func (m *Matcher) evaluate(rule model.RoutingRule, txn model.Transaction) (bool, string, error) {
	if rule.MatchType == model.MatchRange {
		low, high, err := ParseRange(rule.MatchValue)
		if err != nil {
			return false, "", fmt.Errorf("rule %d has unparseable range: %w", rule.ID, err)
		}
		in := txn.Amount.GreaterThanOrEqual(low) && txn.Amount.LessThanOrEqual(high)
		return in, txn.Amount.String(), nil
	}

	field := extractField(rule.FieldType, txn)
	lowered := strings.ToLower(field)

	switch rule.MatchType {
	case model.MatchExact:
		return lowered == strings.ToLower(rule.MatchValue), field, nil
	case model.MatchContains:
		for _, token := range ContainsTokens(rule.MatchValue) {
			if strings.Contains(lowered, strings.ToLower(token)) {
				return true, field, nil
			}
		}
		return false, "", nil
	case model.MatchStartsWith:
		return strings.HasPrefix(lowered, strings.ToLower(rule.MatchValue)), field, nil
	case model.MatchEndsWith:
		return strings.HasSuffix(lowered, strings.ToLower(rule.MatchValue)), field, nil
	case model.MatchRegex:
		re, ok := m.compiledRegex[rule.ID]
		if !ok {
			return false, "", fmt.Errorf("rule %d has no compiled pattern", rule.ID)
		}
		groups := re.FindStringSubmatch(field)
		if groups == nil {
			return false, "", nil
		}
		return true, extractCode(re, groups), nil
	}

	return false, "", fmt.Errorf("rule %d has unknown match type %q", rule.ID, rule.MatchType)
}

// resolveAutoDetect looks the extracted code up in the project directory.
// Lookup failure or timeout yields a matched-but-unresolved result rather
// than an error: the rule claimed the transaction, and falling through to a
// lower-priority rule would silently override the operator's ordering.
func (m *Matcher) resolveAutoDetect(ctx context.Context, rule model.RoutingRule, code string) (MatchResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return MatchResult{Matched: true, ExtractedCode: code}, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, m.lookupTimeout)
	defer cancel()

	projectID, err := m.directory.Lookup(lookupCtx, code)
	if err != nil {
		slog.Warn("Auto-detect lookup failed",
			"rule_id", rule.ID,
			"code", code,
			"error", err)
		return MatchResult{Matched: true, ExtractedCode: code}, nil
	}

	return MatchResult{Matched: true, ResolvedProjectID: &projectID, ExtractedCode: code}, nil
}

// extractField pulls the field named by the rule out of the transaction.
func extractField(field model.FieldType, txn model.Transaction) string {
	switch field {
	case model.FieldMemo:
		return txn.Memo
	case model.FieldReference:
		return txn.ReferenceNumber
	case model.FieldCustomerName:
		return txn.CounterpartyName
	case model.FieldItemName:
		return txn.Description
	case model.FieldAmountRange:
		return txn.Amount.String()
	case model.FieldCustomField:
		// No single column carries custom fields; match against everything
		// textual the feed gave us.
		return strings.Join([]string{txn.Memo, txn.ReferenceNumber, txn.Description, txn.CounterpartyName}, " ")
	}
	return ""
}

// extractCode picks the auto-detect text from a regex match: the project_code
// named group when present, otherwise the first capture group, otherwise the
// whole match.
func extractCode(re *regexp.Regexp, groups []string) string {
	for i, name := range re.SubexpNames() {
		if name == projectCodeGroup && i < len(groups) {
			return groups[i]
		}
	}
	if len(groups) > 1 {
		return groups[1]
	}
	return groups[0]
}
