package master

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"authoritative-core/internal/dnsname"
)

// EntryKind classifies one logical entry read from a master file.
type EntryKind int

const (
	EntryBlank EntryKind = iota
	EntryOrigin
	EntryTTL
	EntryInclude
	EntryControl
	EntryRecord
)

// Entry is one parsed logical line: a directive, a record, or nothing.
type Entry struct {
	Kind          EntryKind
	Origin        dnsname.Name
	TTL           uint32
	IncludePath   string
	IncludeOrigin *dnsname.Name
	Record        Record
}

// Record is a fully resolved presentation-format record: an absolute
// owner name, class, TTL and parsed RDATA.
type Record struct {
	Owner dnsname.Name
	Class uint16
	TTL   uint32
	RData dns.RR
}

// parseEntry interprets one scanned entry's words against the reader's
// current state (origin, default TTL, and the previous record's owner
// and class, used for inheritance on indented or abbreviated lines).
func parseEntry(words []string, indented bool, pos Position, origin *dnsname.Name, defaultTTL *uint32, lastOwner *dnsname.Name, lastClass uint16) (Entry, error) {
	if len(words) == 0 {
		return Entry{Kind: EntryBlank}, nil
	}
	if strings.HasPrefix(words[0], "$") {
		return parseDirective(words, pos, origin)
	}
	return parseRecord(words, indented, pos, origin, defaultTTL, lastOwner, lastClass)
}

func parseDirective(words []string, pos Position, origin *dnsname.Name) (Entry, error) {
	switch strings.ToUpper(words[0]) {
	case "$ORIGIN":
		if len(words) < 2 {
			return Entry{}, &SyntaxError{pos, "$ORIGIN requires a name"}
		}
		name, err := dnsname.ResolveName(words[1], origin)
		if err != nil {
			return Entry{}, &SyntaxError{pos, err.Error()}
		}
		return Entry{Kind: EntryOrigin, Origin: name}, nil
	case "$TTL":
		if len(words) < 2 {
			return Entry{}, &SyntaxError{pos, "$TTL requires a value"}
		}
		n, ok := parseTTL(words[1])
		if !ok {
			return Entry{}, &SyntaxError{pos, fmt.Sprintf("invalid $TTL value %q", words[1])}
		}
		return Entry{Kind: EntryTTL, TTL: n}, nil
	case "$INCLUDE":
		if len(words) < 2 {
			return Entry{}, &SyntaxError{pos, "$INCLUDE requires a path"}
		}
		e := Entry{Kind: EntryInclude, IncludePath: words[1]}
		if len(words) >= 3 {
			name, err := dnsname.ResolveName(words[2], origin)
			if err != nil {
				return Entry{}, &SyntaxError{pos, err.Error()}
			}
			e.IncludeOrigin = &name
		}
		return e, nil
	default:
		return Entry{Kind: EntryControl}, nil
	}
}

func parseRecord(words []string, indented bool, pos Position, origin *dnsname.Name, defaultTTL *uint32, lastOwner *dnsname.Name, lastClass uint16) (Entry, error) {
	idx := 0
	var owner dnsname.Name
	if indented {
		if lastOwner == nil {
			return Entry{}, &SyntaxError{pos, "no previous owner to inherit"}
		}
		owner = *lastOwner
	} else {
		resolved, err := dnsname.ResolveName(words[0], origin)
		if err != nil {
			return Entry{}, &SyntaxError{pos, err.Error()}
		}
		owner = resolved
		idx = 1
	}
	if idx >= len(words) {
		return Entry{}, &SyntaxError{pos, "incomplete record: missing type"}
	}

	class := lastClass
	if class == 0 {
		class = dns.ClassINET
	}
	haveTTL := false
	var recTTL uint32
	for idx < len(words) {
		w := words[idx]
		if n, ok := parseTTL(w); ok && !haveTTL {
			recTTL, haveTTL = n, true
			idx++
			continue
		}
		if c, ok := classFromString(w); ok {
			class = c
			idx++
			continue
		}
		break
	}
	if idx >= len(words) {
		return Entry{}, &SyntaxError{pos, "incomplete record: missing type"}
	}
	typeWord := strings.ToUpper(words[idx])
	rtype, ok := dns.StringToType[typeWord]
	if !ok {
		return Entry{}, &SyntaxError{pos, fmt.Sprintf("unknown record type %q", words[idx])}
	}
	idx++
	rdataWords := words[idx:]

	if !haveTTL {
		if defaultTTL == nil {
			return Entry{}, &SyntaxError{pos, "no TTL available: missing $TTL and no explicit TTL on this record"}
		}
		recTTL = *defaultTTL
	}

	line := fmt.Sprintf("%s %d %s %s %s", owner.String(), recTTL, dns.ClassToString[class], dns.TypeToString[rtype], joinRData(rdataWords))
	originText := "."
	if origin != nil {
		originText = origin.String()
	}
	rr, err := parseRR(line, originText)
	if err != nil {
		return Entry{}, &SyntaxError{pos, fmt.Sprintf("invalid %s rdata: %v", dns.TypeToString[rtype], err)}
	}

	return Entry{Kind: EntryRecord, Record: Record{Owner: owner, Class: class, TTL: recTTL, RData: rr}}, nil
}

// parseRR parses one presentation-format resource record line under
// origin. dns.NewRR alone always qualifies a relative domain name
// against the root, which is wrong for RDATA fields like an SOA's MNAME
// or RNAME that a zone file means to resolve against its own $ORIGIN;
// dns.NewZoneParser does that qualification properly, so a single-line
// zone is run through it instead.
func parseRR(line, origin string) (dns.RR, error) {
	zp := dns.NewZoneParser(strings.NewReader(line), origin, "")
	rr, _ := zp.Next()
	if err := zp.Err(); err != nil {
		return nil, err
	}
	if rr == nil {
		return nil, fmt.Errorf("no record parsed")
	}
	return rr, nil
}

// joinRData reassembles the RDATA words into presentation text, quoting
// any word the RR parser would otherwise split on an embedded space.
func joinRData(words []string) string {
	out := make([]string, len(words))
	for i, w := range words {
		if strings.ContainsAny(w, " \t") {
			out[i] = strconv.Quote(w)
		} else {
			out[i] = w
		}
	}
	return strings.Join(out, " ")
}

func parseTTL(s string) (uint32, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func classFromString(s string) (uint16, bool) {
	c, ok := dns.StringToClass[strings.ToUpper(s)]
	return c, ok
}
