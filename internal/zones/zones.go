// Package zones implements the top-level index of all loaded zones,
// partitioned by class, and the load path that turns a stream of
// master-file records into an installed zone.
package zones

import (
	"errors"
	"fmt"
	"sync"

	"github.com/miekg/dns"

	"authoritative-core/internal/dnsname"
	"authoritative-core/internal/master"
	"authoritative-core/internal/trie"
	"authoritative-core/internal/zone"
)

// ErrZoneExists is returned by AddZone when a zone is already installed
// at the given name and class.
var ErrZoneExists = errors.New("zones: a zone already exists at this name and class")

// ErrNotRooted is returned by AddZone when a name does not terminate in
// the root label (Find reports such a name as not covered, ok=false),
// which should be unreachable for any name produced by
// dnsname.ResolveName or dnsname.FromWire.
var ErrNotRooted = errors.New("zones: name does not terminate at the root")

// QueryOutcome classifies the result of a top-level query, distinguishing
// "no authoritative zone at all" from the finer-grained outcomes a
// matched zone's own Query can produce.
type QueryOutcome int

const (
	// OutcomeRefused: no zone of the requested class covers this name.
	OutcomeRefused QueryOutcome = iota
	// OutcomeNXDomain: a zone was found, but the name doesn't exist in it.
	OutcomeNXDomain
	// OutcomeAnswer: a zone was found and produced an Entry (which may
	// itself be NODATA, a delegation, or an authoritative answer).
	OutcomeAnswer
)

// AuthoritativeZones indexes every loaded zone by class and apex name.
// Class IN, overwhelmingly the common case, gets a dedicated root so the
// hot path never touches a map lookup keyed by class.
type AuthoritativeZones struct {
	mu     sync.RWMutex
	inRoot *trie.Node[*zone.Zone]
	roots  map[uint16]*trie.Node[*zone.Zone]
}

// New returns an index with no zones loaded.
func New() *AuthoritativeZones {
	return &AuthoritativeZones{
		inRoot: trie.NewNode[*zone.Zone](nil),
		roots:  make(map[uint16]*trie.Node[*zone.Zone]),
	}
}

func (z *AuthoritativeZones) classRoot(class uint16) *trie.Node[*zone.Zone] {
	if class == dns.ClassINET {
		return z.inRoot
	}
	return z.roots[class]
}

func (z *AuthoritativeZones) classRootForWrite(class uint16) *trie.Node[*zone.Zone] {
	if class == dns.ClassINET {
		return z.inRoot
	}
	if r, ok := z.roots[class]; ok {
		return r
	}
	r := trie.NewNode[*zone.Zone](nil)
	z.roots[class] = r
	return r
}

// AddZone installs zn at name under class, failing with ErrZoneExists if
// something is already installed there.
func (z *AuthoritativeZones) AddZone(name dnsname.Name, class uint16, zn *zone.Zone) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	labels := name.LabelettesRootFirst()
	if len(labels) == 0 || !labels[0].IsRoot() {
		return ErrNotRooted
	}
	root := z.classRootForWrite(class)
	node, err := root.BuildNode(labels[1:], func(*zone.Zone) (*zone.Zone, error) {
		return nil, nil
	})
	if err != nil {
		return err
	}
	if node.Value != nil {
		return ErrZoneExists
	}
	node.Value = zn
	return nil
}

// Find walks from the class root toward name, returning the zone
// installed at the deepest ancestor of name that has one (its "apex")
// along with name's remainder relative to that apex. ok is false if no
// zone of this class covers name at all.
func (z *AuthoritativeZones) Find(class uint16, name dnsname.Name) (zn *zone.Zone, rel dnsname.RelativeName, ok bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	labels := name.LabelettesRootFirst()
	if len(labels) == 0 || !labels[0].IsRoot() {
		return nil, dnsname.RelativeName{}, false
	}
	node := z.classRoot(class)
	if node == nil {
		return nil, dnsname.RelativeName{}, false
	}

	var apex *zone.Zone
	var apexRemaining []dnsname.Labelette
	cur := node
	remaining := labels[1:]
	for {
		if cur.Value != nil {
			apex = cur.Value
			apexRemaining = remaining
		}
		if len(remaining) == 0 {
			break
		}
		child, found := cur.GetChild(remaining[0])
		if !found {
			break
		}
		cur = child
		remaining = remaining[1:]
	}
	if apex == nil {
		return nil, dnsname.RelativeName{}, false
	}
	return apex, dnsname.NewRelativeName(apexRemaining), true
}

// Query resolves a single question against the index, returning enough
// information (the matched zone, plus the zone-level Entry) for a caller
// to assemble authority and glue sections.
func (z *AuthoritativeZones) Query(q *dns.Question) (zn *zone.Zone, entry zone.Entry, outcome QueryOutcome) {
	name, err := dnsname.FromWire(q.Name)
	if err != nil {
		return nil, zone.Entry{}, OutcomeRefused
	}
	zn, rel, ok := z.Find(q.Qclass, name)
	if !ok {
		return nil, zone.Entry{}, OutcomeRefused
	}
	e, found := zn.Query(rel, q.Qtype)
	if !found {
		return zn, zone.Entry{}, OutcomeNXDomain
	}
	return zn, e, OutcomeAnswer
}

// RecordSource streams master-file records the way bufio.Scanner streams
// lines: call Scan until it returns false, then check Err.
type RecordSource interface {
	Scan() bool
	Record() master.Record
	Err() error
}

type relRecord struct {
	owner dnsname.Name
	rel   dnsname.RelativeName
	ttl   uint32
	rdata dns.RR
}

// LoadZone drains records, building a new zone whose apex is name, then
// installs it under class. Every record's owner must fall under name and
// its class must equal class; mismatches are collected (not fatal to the
// scan) and, if any occurred, the whole load is rejected and no zone is
// installed — load_zone is all-or-nothing.
//
// NS records below the apex turn their owner into a delegation cut; A and
// AAAA records owned at a name strictly below a cut are glue for that
// cut rather than ordinary authoritative data, since a cut boundary is
// exactly the promise that this zone stops being authoritative there.
func (z *AuthoritativeZones) LoadZone(name dnsname.Name, class uint16, records RecordSource) error {
	var accepted []relRecord
	var loadErr error

	for records.Scan() {
		rec := records.Record()
		if rec.Class != class {
			loadErr = errors.Join(loadErr, fmt.Errorf("class mismatch for %s: record is %s, zone is %s",
				rec.Owner, dns.ClassToString[rec.Class], dns.ClassToString[class]))
			continue
		}
		rel, ok := rec.Owner.StripSuffix(name)
		if !ok {
			loadErr = errors.Join(loadErr, fmt.Errorf("owner %s is not in zone %s", rec.Owner, name))
			continue
		}
		accepted = append(accepted, relRecord{owner: rec.Owner, rel: rel, ttl: rec.TTL, rdata: rec.RData})
	}
	if err := records.Err(); err != nil {
		return err
	}

	var cutNames []dnsname.RelativeName
	for _, r := range accepted {
		if _, ok := r.rdata.(*dns.NS); ok && !r.rel.IsApex() {
			cutNames = append(cutNames, r.rel)
		}
	}
	belowCut := func(rel dnsname.RelativeName) (dnsname.RelativeName, bool) {
		for _, cn := range cutNames {
			if rel.StrictlyBelow(cn) {
				return cn, true
			}
		}
		return dnsname.RelativeName{}, false
	}

	zn := zone.New()
	for _, r := range accepted {
		if cn, ok := belowCut(r.rel); ok {
			switch r.rdata.(type) {
			case *dns.A, *dns.AAAA:
				cut, err := zn.AddCut(cn)
				if err != nil {
					loadErr = errors.Join(loadErr, fmt.Errorf("%s: %w", r.owner, err))
					continue
				}
				cut.Glue = append(cut.Glue, r.rdata)
			default:
				loadErr = errors.Join(loadErr, fmt.Errorf("%s: data below a delegation cut", r.owner))
			}
			continue
		}
		if ns, ok := r.rdata.(*dns.NS); ok && !r.rel.IsApex() {
			cut, err := zn.AddCut(r.rel)
			if err != nil {
				loadErr = errors.Join(loadErr, fmt.Errorf("%s: %w", r.owner, err))
				continue
			}
			if err := cut.NS.Add(r.ttl, ns); err != nil {
				loadErr = errors.Join(loadErr, fmt.Errorf("%s: %w", r.owner, err))
			}
			continue
		}
		if err := zn.AddRecord(r.rel, r.ttl, r.rdata); err != nil {
			loadErr = errors.Join(loadErr, fmt.Errorf("%s: %w", r.owner, err))
			continue
		}
	}
	if loadErr != nil {
		return loadErr
	}
	return z.AddZone(name, class, zn)
}
