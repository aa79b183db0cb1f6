// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "regexp"

// SubscriptionID is the router-assigned opaque token that correlates every
// callback message with one subscription.
type SubscriptionID string

func (id SubscriptionID) String() string { return string(id) }

var subscriptionIDRe = regexp.MustCompile(`^[a-zA-Z0-9_.:-]{1,128}$`)

// IsSafeSubscriptionID returns true if the ID can be echoed into headers, logs
// and store keys without escaping.
func IsSafeSubscriptionID(id string) bool {
	return subscriptionIDRe.MatchString(id)
}
