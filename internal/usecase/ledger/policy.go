package ledger

import (
	"fmt"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// transferRule is one entry in the closed transfer policy table. Rules are
// checked in order; the first match wins. Pairs with no matching rule are
// allowed.
type transferRule struct {
	From   domain.BucketType
	To     domain.BucketType
	Reason string
}

// denyRules is the policy table. Auditing or changing transfer policy is a
// data change here, not a code change.
var denyRules = []transferRule{
	{From: domain.BucketGrowth, To: domain.BucketExternal, Reason: "growth funds may only move to other buckets, never withdrawn directly"},
}

// checkPolicy validates a (from, to) pair against the policy table.
func checkPolicy(from, to domain.BucketType) error {
	if !from.IsStored() {
		return fmt.Errorf("%w: source bucket %q", domain.ErrInvalidBucket, from)
	}
	if !to.IsStored() && to != domain.BucketExternal {
		return fmt.Errorf("%w: target bucket %q", domain.ErrInvalidBucket, to)
	}
	for _, rule := range denyRules {
		if rule.From == from && rule.To == to {
			return fmt.Errorf("%w: %s", domain.ErrPolicyViolation, rule.Reason)
		}
	}
	return nil
}
