// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package net guards outbound callback URLs supplied by routers.
package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrCallbackNotAllowed means the callback URL fails the outbound policy.
var ErrCallbackNotAllowed = errors.New("callback url not allowed")

// Resolver looks up the addresses of a host.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// CallbackPolicy restricts where callbacks may be delivered. A host passes if
// it is listed in Hosts, or if every address it resolves to is public or
// inside CIDRs. Loopback, link-local, unspecified and multicast addresses are
// refused unless covered by CIDRs.
type CallbackPolicy struct {
	Hosts    map[string]struct{}
	CIDRs    []*net.IPNet
	Resolver Resolver
}

// NewCallbackPolicy normalizes the allow lists.
func NewCallbackPolicy(hosts, cidrs []string) (*CallbackPolicy, error) {
	p := &CallbackPolicy{
		Hosts:    make(map[string]struct{}, len(hosts)),
		Resolver: net.DefaultResolver,
	}
	for _, h := range hosts {
		n, err := NormalizeHost(h)
		if err != nil {
			return nil, err
		}
		p.Hosts[n] = struct{}{}
	}
	nets, err := parseCIDRs(cidrs)
	if err != nil {
		return nil, err
	}
	p.CIDRs = nets
	return p, nil
}

// Check validates raw against the policy. A nil policy allows everything.
func (p *CallbackPolicy) Check(ctx context.Context, raw string) error {
	if p == nil {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCallbackNotAllowed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrCallbackNotAllowed, u.Scheme)
	}
	if u.User != nil {
		return fmt.Errorf("%w: userinfo not allowed", ErrCallbackNotAllowed)
	}
	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCallbackNotAllowed, err)
	}
	if _, ok := p.Hosts[host]; ok {
		return nil
	}

	ips, err := p.resolve(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCallbackNotAllowed, err)
	}
	for _, ip := range ips {
		if isBlockedIP(ip) && !inCIDRs(ip, p.CIDRs) {
			return fmt.Errorf("%w: blocked address %s", ErrCallbackNotAllowed, ip)
		}
	}
	return nil
}

func (p *CallbackPolicy) resolve(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	addrs, err := p.Resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve host %q: %w", host, err)
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		if a.IP != nil {
			ips = append(ips, a.IP)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("resolve host %q: no addresses", host)
	}
	return ips, nil
}

// NormalizeHost lowercases host, strips IPv6 brackets and a trailing dot, and
// converts IDNs to their ASCII form.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", errors.New("host is empty")
	}
	if strings.ContainsAny(host, "/@%") {
		return "", fmt.Errorf("invalid host %q", raw)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	if strings.Contains(host, ":") {
		return "", fmt.Errorf("host must not include port: %s", raw)
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}

// SanitizeURL drops userinfo and query for logging.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url-redacted"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

func parseCIDRs(entries []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ipnet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipnet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid CIDR or IP: %s", entry)
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets, nil
}

func isBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast()
}

func inCIDRs(ip net.IP, cidrs []*net.IPNet) bool {
	for _, n := range cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
