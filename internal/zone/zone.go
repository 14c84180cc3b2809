// Package zone implements a single zone's record tree: the authoritative
// data and delegation cuts reachable under one apex, and the lookup
// algorithm that answers a (name, type) query against it.
package zone

import (
	"errors"

	"github.com/miekg/dns"

	"authoritative-core/internal/dnsname"
	"authoritative-core/internal/rrset"
	"authoritative-core/internal/trie"
)

var (
	// ErrCutConflict is returned by AddRecord when the owner name already
	// holds a delegation cut: a name cannot be both authoritative and
	// the child side of an NS delegation in the same zone.
	ErrCutConflict = errors.New("zone: owner name is a delegation cut")
	// ErrAuthConflict is the symmetric error from AddCut.
	ErrAuthConflict = errors.New("zone: owner name already holds authoritative data")
)

// Cut is a delegation point: the NS records naming the child zone's
// servers, plus any address glue for those servers that falls inside
// this zone (and so wouldn't otherwise be resolvable by a client that
// can only ask the parent).
type Cut struct {
	NS   *rrset.RRset
	Glue []dns.RR
}

type entryKind int

const (
	entryAuthoritative entryKind = iota
	entryCut
)

// nodeValue is the payload carried by each trie node. A nil *nodeValue
// means the node exists only as a path component with no data of its
// own — the "empty node" case used to detect NODATA during descent.
type nodeValue struct {
	kind    entryKind
	records *rrset.Records
	cut     *Cut
}

// Entry is the tagged result of a zone query: either an authoritative
// answer (RRset may be nil, meaning NODATA) or a delegation that the
// caller must turn into a referral.
type Entry struct {
	isCut bool
	rrset *rrset.RRset
	cut   *Cut
}

func authoritativeEntry(r *rrset.RRset) Entry { return Entry{rrset: r} }
func cutEntry(c *Cut) Entry                   { return Entry{isCut: true, cut: c} }

// IsCut reports whether this entry is a delegation.
func (e Entry) IsCut() bool { return e.isCut }

// Cut returns the delegation data; only meaningful if IsCut is true.
func (e Entry) Cut() *Cut { return e.cut }

// RRset returns the authoritative data found, or nil for NODATA; only
// meaningful if IsCut is false.
func (e Entry) RRset() *rrset.RRset { return e.rrset }

// Zone is one zone's record tree, rooted at its apex.
type Zone struct {
	data *trie.Node[*nodeValue]
}

// New returns an empty zone with nothing but its (empty) apex node.
func New() *Zone {
	return &Zone{data: trie.NewNode[*nodeValue](nil)}
}

func (z *Zone) buildNode(rel dnsname.RelativeName) (*trie.Node[*nodeValue], error) {
	return z.data.BuildNode(rel.LabelettesRootFirst(), func(*nodeValue) (*nodeValue, error) {
		return nil, nil
	})
}

// AddRecord ensures relname names authoritative data, creating the node
// if needed, and adds rdata under ttl to the RRset matching rdata's type.
func (z *Zone) AddRecord(relname dnsname.RelativeName, ttl uint32, rdata dns.RR) error {
	node, err := z.buildNode(relname)
	if err != nil {
		return err
	}
	if node.Value == nil {
		node.Value = &nodeValue{kind: entryAuthoritative, records: rrset.NewRecords()}
	}
	if node.Value.kind == entryCut {
		return ErrCutConflict
	}
	return node.Value.records.AddRecord(ttl, rdata)
}

// AddCut ensures relname is a delegation cut, creating it if needed, and
// returns the Cut so the caller can append NS and glue records to it.
func (z *Zone) AddCut(relname dnsname.RelativeName) (*Cut, error) {
	node, err := z.buildNode(relname)
	if err != nil {
		return nil, err
	}
	if node.Value == nil {
		node.Value = &nodeValue{kind: entryCut, cut: &Cut{NS: rrset.New()}}
	}
	if node.Value.kind == entryAuthoritative {
		return nil, ErrAuthConflict
	}
	return node.Value.cut, nil
}

// Query resolves relname to the deepest matching node, descending label
// by label and falling back to a wildcard ("*") child when an exact
// child is missing. found is false for NXDOMAIN: no exact or wildcard
// child existed along the descent. found is true with a nil RRset for
// NODATA: the name exists but carries nothing of the requested type.
func (z *Zone) Query(relname dnsname.RelativeName, rtype uint16) (entry Entry, found bool) {
	node := z.data
	for _, l := range relname.LabelettesRootFirst() {
		if node.Value != nil && node.Value.kind == entryCut {
			return cutEntry(node.Value.cut), true
		}
		if child, ok := node.GetChild(l); ok {
			node = child
			continue
		}
		if wc, ok := node.GetChild(dnsname.WildcardLabelette()); ok {
			node = wc
			break
		}
		return Entry{}, false
	}
	if node.Value == nil {
		return authoritativeEntry(nil), true
	}
	if node.Value.kind == entryCut {
		return cutEntry(node.Value.cut), true
	}
	rs, _ := node.Value.records.Get(rtype)
	return authoritativeEntry(rs), true
}
