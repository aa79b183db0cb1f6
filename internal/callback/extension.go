// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package callback

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

var (
	// ErrExtensionNotSpecified means the request carries no subscription extension.
	ErrExtensionNotSpecified = errors.New("callback extension not specified")
	// ErrInvalidExtension means the extension is present but unusable.
	ErrInvalidExtension = errors.New("invalid callback extension")
)

// Extension is the router's callback registration taken from
// extensions.subscription of the GraphQL request.
type Extension struct {
	CallbackURL    string
	SubscriptionID model.SubscriptionID
	Verifier       string
	// HeartbeatInterval is nil when the router did not ask for a specific
	// interval. A zero value disables heartbeats.
	HeartbeatInterval *time.Duration
}

// ParseExtension extracts the callback extension, accepting camelCase and
// legacy snake_case keys.
func ParseExtension(extensions map[string]any) (Extension, error) {
	raw, ok := extensions["subscription"]
	if !ok || raw == nil {
		return Extension{}, ErrExtensionNotSpecified
	}
	sub, ok := raw.(map[string]any)
	if !ok {
		return Extension{}, fmt.Errorf("%w: subscription must be an object", ErrInvalidExtension)
	}

	var bad []string
	str := func(keys ...string) string {
		for _, k := range keys {
			v, ok := sub[k]
			if !ok {
				continue
			}
			s, ok := v.(string)
			if !ok || s == "" {
				bad = append(bad, k)
				return ""
			}
			return s
		}
		bad = append(bad, keys[0])
		return ""
	}

	ext := Extension{
		CallbackURL:    str("callbackUrl", "callback_url"),
		SubscriptionID: model.SubscriptionID(str("subscriptionId", "subscription_id")),
		Verifier:       str("verifier"),
	}

	if ext.CallbackURL != "" {
		if err := validateCallbackURL(ext.CallbackURL); err != nil {
			bad = append(bad, "callbackUrl")
		}
	}

	for _, k := range []string{"heartbeatIntervalMs", "heartbeat_interval_ms"} {
		v, ok := sub[k]
		if !ok {
			continue
		}
		ms, ok := millis(v)
		if !ok {
			bad = append(bad, k)
			break
		}
		d := time.Duration(ms) * time.Millisecond
		ext.HeartbeatInterval = &d
		break
	}

	if len(bad) > 0 {
		sort.Strings(bad)
		return Extension{}, fmt.Errorf("%w: %s", ErrInvalidExtension, strings.Join(bad, ", "))
	}
	return ext, nil
}

func validateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func millis(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != math.Trunc(n) || n > math.MaxInt64/float64(time.Millisecond) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), n >= 0
	case int64:
		return n, n >= 0
	case json.Number:
		i, err := n.Int64()
		return i, err == nil && i >= 0
	default:
		return 0, false
	}
}
