// Package rrset holds the per-type record sets attached to a zone node.
package rrset

import (
	"errors"

	"github.com/miekg/dns"
)

// ErrTTLMismatch is returned when a record is added to an RRset whose TTL
// was already set to a different value. RFC 2181 §5.2 requires all
// records in an RRset to share one TTL.
var ErrTTLMismatch = errors.New("rrset: conflicting ttl for existing rrset")

// RRset is the data for one (owner, type) pair: a shared TTL and the
// record data contributed by each presentation-format entry. A TTL of
// zero means "not yet set" — it is assigned by the first record added.
type RRset struct {
	TTL  uint32
	Data []dns.RR
}

// New returns an empty RRset with no TTL set.
func New() *RRset {
	return &RRset{}
}

// Add appends rdata to the set, adopting ttl if the set has none yet, or
// rejecting the record with ErrTTLMismatch if ttl disagrees with the
// set's existing TTL.
func (r *RRset) Add(ttl uint32, rdata dns.RR) error {
	if r.TTL == 0 {
		r.TTL = ttl
	} else if r.TTL != ttl {
		return ErrTTLMismatch
	}
	r.Data = append(r.Data, rdata)
	return nil
}

// Records maps record type to the RRset holding that type's data at one
// trie node.
type Records struct {
	rrsets map[uint16]*RRset
}

// NewRecords returns an empty Records map.
func NewRecords() *Records {
	return &Records{rrsets: make(map[uint16]*RRset)}
}

// AddRecord adds rdata (whose type is read from its header) under ttl,
// creating the RRset for that type if this is its first record.
func (r *Records) AddRecord(ttl uint32, rdata dns.RR) error {
	rtype := rdata.Header().Rrtype
	set, ok := r.rrsets[rtype]
	if !ok {
		set = New()
		r.rrsets[rtype] = set
	}
	return set.Add(ttl, rdata)
}

// Get returns the RRset for rtype, if any records of that type exist.
func (r *Records) Get(rtype uint16) (*RRset, bool) {
	set, ok := r.rrsets[rtype]
	return set, ok
}

// Empty reports whether no record type has data at this node.
func (r *Records) Empty() bool {
	return len(r.rrsets) == 0
}
