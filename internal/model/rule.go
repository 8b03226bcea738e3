package model

import (
	"time"
)

// FieldType names the transaction field a routing rule inspects.
type FieldType string

// Field type constants.
const (
	FieldMemo         FieldType = "memo"
	FieldReference    FieldType = "reference"
	FieldCustomerName FieldType = "customer_name"
	FieldItemName     FieldType = "item_name"
	FieldAmountRange  FieldType = "amount_range"
	FieldCustomField  FieldType = "custom_field"
)

// MatchType names how the extracted field is compared to the rule value.
type MatchType string

// Match type constants.
const (
	MatchExact      MatchType = "exact"
	MatchContains   MatchType = "contains"
	MatchStartsWith MatchType = "starts_with"
	MatchEndsWith   MatchType = "ends_with"
	MatchRegex      MatchType = "regex"
	MatchRange      MatchType = "range"
)

// TargetAutoDetect is the sentinel target meaning the project is derived from
// the matched text instead of being fixed in the rule.
const TargetAutoDetect = "auto-detect"

// RoutingRule is an operator-defined pattern that assigns matching
// transactions to a project. Active rules form a total order: priority
// ascending, then created_at ascending, then id ascending.
type RoutingRule struct {
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	MatchValue      string    `json:"match_value"`
	TargetProjectID string    `json:"target_project_id"`
	FieldType       FieldType `json:"field_type"`
	MatchType       MatchType `json:"match_type"`
	ID              int64     `json:"id"`
	Priority        int       `json:"priority"`
	UseCount        int       `json:"use_count"`
	IsActive        bool      `json:"is_active"`
}

// IsAutoDetect reports whether the rule resolves its target from matched text.
func (r *RoutingRule) IsAutoDetect() bool {
	return r.TargetProjectID == TargetAutoDetect
}

// ValidFieldType reports whether f is one of the known field variants.
func ValidFieldType(f FieldType) bool {
	switch f {
	case FieldMemo, FieldReference, FieldCustomerName, FieldItemName, FieldAmountRange, FieldCustomField:
		return true
	}
	return false
}

// ValidMatchType reports whether m is one of the known match variants.
func ValidMatchType(m MatchType) bool {
	switch m {
	case MatchExact, MatchContains, MatchStartsWith, MatchEndsWith, MatchRegex, MatchRange:
		return true
	}
	return false
}
