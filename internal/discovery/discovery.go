// ABOUTME: DNS TXT record discovery of a domain's root attestation URI and identity
// ABOUTME: Queries _chainsights.<domain> and parses key="value" tokens per spec §6.1
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// Label is the fixed subdomain prefix under which the root record is published.
const Label = "_chainsights"

// Result is the resolved root manifest location and the identity expected
// to have signed it.
type Result struct {
	URI      string
	Identity string
}

// NoChainsightsRecordError reports that no TXT record under the
// _chainsights label carried both a uri and an identity token.
type NoChainsightsRecordError struct {
	Domain string
}

func (e *NoChainsightsRecordError) Error() string {
	return fmt.Sprintf("no _chainsights TXT record found for domain %q", e.Domain)
}

// Resolver queries TXT records for a name, returning the raw (possibly
// multi-string) record values. Satisfied by *Client in production and by
// a fake in tests.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([][]string, error)
}

// Client resolves Chainsights discovery records against a single
// upstream DNS server using github.com/miekg/dns, mirroring the
// single-shared-resolver-instance requirement of spec §5.
type Client struct {
	Server string
	dns    *dns.Client
}

// NewClient returns a Client querying the given "host:port" DNS server
// (e.g. "1.1.1.1:53"). An empty server defaults to "1.1.1.1:53".
func NewClient(server string) *Client {
	if server == "" {
		server = "1.1.1.1:53"
	}
	return &Client{Server: server, dns: new(dns.Client)}
}

// LookupTXT issues a TXT query for name and returns each record's
// constituent character-strings, unconcatenated.
func (c *Client) LookupTXT(ctx context.Context, name string) ([][]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true

	resp, _, err := c.dns.ExchangeContext(ctx, msg, c.Server)
	if err != nil {
		return nil, fmt.Errorf("querying TXT %q: %w", name, err)
	}

	var records [][]string
	for _, rr := range resp.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		records = append(records, txt.Txt)
	}
	return records, nil
}

// ResolveDomain implements spec §4.1/§6.1: query _chainsights.<domain>,
// concatenate each record's character-strings, tokenize on whitespace,
// and take the first record whose tokens include both uri="..." and
// identity="...". Any other tokens are ignored.
func ResolveDomain(ctx context.Context, resolver Resolver, domain string) (*Result, error) {
	name := Label + "." + domain

	records, err := resolver.LookupTXT(ctx, name)
	if err != nil {
		return nil, err
	}

	for _, strs := range records {
		concatenated := strings.Join(strs, "")
		tokens := strings.Fields(concatenated)

		var uri, identity string
		for _, tok := range tokens {
			key, val, ok := parseToken(tok)
			if !ok {
				continue
			}
			switch key {
			case "uri":
				uri = val
			case "identity":
				identity = val
			}
		}

		if uri != "" && identity != "" {
			return &Result{URI: uri, Identity: identity}, nil
		}
	}

	return nil, &NoChainsightsRecordError{Domain: domain}
}

// parseToken splits a single key=value token, stripping surrounding
// double quotes from the value if present; quotes are optional. Tokens
// without an '=' are rejected.
func parseToken(tok string) (key, val string, ok bool) {
	eq := strings.IndexByte(tok, '=')
	if eq < 0 {
		return "", "", false
	}
	key = tok[:eq]
	val = strings.Trim(tok[eq+1:], `"`)
	return key, val, true
}
