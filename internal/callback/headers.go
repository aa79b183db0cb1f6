// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package callback

import (
	"net/http"
	"strconv"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

// Protocol headers.
const (
	HeaderProtocol       = "Subscription-Protocol"
	ProtocolVersion      = "callback/1.0"
	HeaderSubscriptionID = "Subscription-Id"
	HeaderSequence       = "Subscription-Sequence"
	HeaderMessageKind    = "Subscription-Message-Kind"
)

// SetHeaders writes the correlation headers for msg. Context headers are
// applied first so they can never shadow a protocol header.
func SetHeaders(h http.Header, msg model.Message, context map[string]string) {
	for k, v := range context {
		h.Set(k, v)
	}
	h.Set("Content-Type", "application/json")
	h.Set(HeaderProtocol, ProtocolVersion)
	h.Set(HeaderSubscriptionID, string(msg.SubscriptionID))
	h.Set(HeaderSequence, strconv.FormatUint(msg.Seq, 10))
	h.Set(HeaderMessageKind, msg.Kind.WireKind())
}

// SelectContextHeaders copies the allow-listed headers present in h.
func SelectContextHeaders(h http.Header, allow []string) map[string]string {
	if len(allow) == 0 {
		return nil
	}
	out := make(map[string]string, len(allow))
	for _, name := range allow {
		if v := h.Get(name); v != "" {
			out[http.CanonicalHeaderKey(name)] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
