// Package query synthesizes a wire-format reply from an
// internal/zones.AuthoritativeZones lookup: the piece spec.md leaves to
// "the wire-format collaborator," realized here on top of
// github.com/miekg/dns.
package query

import (
	"github.com/miekg/dns"

	"authoritative-core/internal/dnsname"
	"authoritative-core/internal/zone"
	"authoritative-core/internal/zones"
)

// Answer builds a reply to req by looking up its single question against
// az and translating the outcome into rcode, answer, authority, and
// additional sections the way a BIND-style authoritative server does:
// referrals carry NS plus glue in the additional section, NXDOMAIN and
// NODATA both carry the zone's SOA in authority.
func Answer(az *zones.AuthoritativeZones, req *dns.Msg) *dns.Msg {
	resp := new(dns.Msg)
	resp.SetReply(req)

	if len(req.Question) != 1 {
		resp.Rcode = dns.RcodeFormatError
		return resp
	}
	q := req.Question[0]

	zn, entry, outcome := az.Query(&q)
	switch outcome {
	case zones.OutcomeRefused:
		resp.Rcode = dns.RcodeRefused
		return resp
	case zones.OutcomeNXDomain:
		resp.Authoritative = true
		resp.Rcode = dns.RcodeNameError
		addSOAAuthority(resp, zn)
		return resp
	}

	resp.Authoritative = true
	if entry.IsCut() {
		addReferral(resp, entry.Cut())
		return resp
	}
	rs := entry.RRset()
	if rs == nil {
		addSOAAuthority(resp, zn)
		return resp
	}
	resp.Answer = append(resp.Answer, rs.Data...)
	return resp
}

func addReferral(resp *dns.Msg, cut *zone.Cut) {
	if cut == nil {
		return
	}
	if cut.NS != nil {
		resp.Ns = append(resp.Ns, cut.NS.Data...)
	}
	resp.Extra = append(resp.Extra, cut.Glue...)
}

func addSOAAuthority(resp *dns.Msg, zn *zone.Zone) {
	if zn == nil {
		return
	}
	apex, found := zn.Query(dnsname.ApexName(), dns.TypeSOA)
	if !found || apex.IsCut() {
		return
	}
	if rs := apex.RRset(); rs != nil {
		resp.Ns = append(resp.Ns, rs.Data...)
	}
}
