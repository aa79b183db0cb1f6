// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package callback

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectContextHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer x")
	h.Set("X-Tenant", "acme")
	h.Set("Cookie", "c=1")

	got := SelectContextHeaders(h, []string{"x-tenant", "authorization", "x-missing"})
	assert.Equal(t, map[string]string{"X-Tenant": "acme", "Authorization": "Bearer x"}, got)

	assert.Nil(t, SelectContextHeaders(h, nil))
	assert.Nil(t, SelectContextHeaders(h, []string{"x-missing"}))
}
