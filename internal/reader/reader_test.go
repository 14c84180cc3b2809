package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authoritative-core/internal/dnsname"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestFileReaderIterReadsRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "example.db", `$ORIGIN example.com.
$TTL 3600
@   IN SOA ns1.example.com. hostmaster.example.com. ( 1 3600 600 86400 300 )
www IN A   192.0.2.1
`)
	it, err := NewFileReaderIter(path)
	require.NoError(t, err)

	var got []scannedRecord
	for it.Scan() {
		got = append(got, scannedRecord{owner: it.Record().Owner.String(), rtype: it.Record().RData.Header().Rrtype})
	}
	require.NoError(t, it.Err())
	require.Len(t, got, 2)
	assert.Equal(t, dns.TypeSOA, got[0].rtype)
	assert.Equal(t, "www.example.com.", got[1].owner)
}

type scannedRecord struct {
	owner string
	rtype uint16
}

func TestFileReaderIterResolvesInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub.db", `sub1 IN A 192.0.2.5
`)
	path := writeFile(t, dir, "example.db", `$ORIGIN example.com.
$TTL 3600
@ IN SOA ns1.example.com. hostmaster.example.com. ( 1 3600 600 86400 300 )
$INCLUDE sub.db
www IN A 192.0.2.1
`)
	it, err := NewFileReaderIter(path)
	require.NoError(t, err)

	var owners []string
	for it.Scan() {
		owners = append(owners, it.Record().Owner.String())
	}
	require.NoError(t, it.Err())
	require.Len(t, owners, 3)
	assert.Equal(t, "sub1.example.com.", owners[1], "an $INCLUDE with no explicit origin inherits the including file's origin")
	assert.Equal(t, "www.example.com.", owners[2])
}

func TestFileReaderIterIncludeWithExplicitOrigin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub.db", `host IN A 192.0.2.9
`)
	path := writeFile(t, dir, "example.db", `$ORIGIN example.com.
$TTL 3600
@ IN SOA ns1.example.com. hostmaster.example.com. ( 1 3600 600 86400 300 )
$INCLUDE sub.db other.example.com.
`)
	it, err := NewFileReaderIter(path)
	require.NoError(t, err)

	var owners []string
	for it.Scan() {
		owners = append(owners, it.Record().Owner.String())
	}
	require.NoError(t, it.Err())
	require.Len(t, owners, 2)
	assert.Equal(t, "host.other.example.com.", owners[1])
}

func TestFileReaderIterMaxIncludeDepth(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.db")
	b := filepath.Join(dir, "b.db")
	writeFile(t, dir, "a.db", "$INCLUDE b.db\n")
	writeFile(t, dir, "b.db", "$INCLUDE a.db\n")
	_ = a
	_ = b

	it, err := NewFileReaderIterWithDepth(filepath.Join(dir, "a.db"), 3)
	require.NoError(t, err)
	origin, err := dnsname.ResolveName("example.com.", nil)
	require.NoError(t, err)
	it.SetOrigin(origin)

	for it.Scan() {
	}
	assert.ErrorIs(t, it.Err(), ErrIncludeDepthExceeded)
}

func TestFileReaderIterMissingFile(t *testing.T) {
	_, err := NewFileReaderIter(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestFileReaderIterStickyErrorAfterIncludeMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "example.db", "$ORIGIN example.com.\n$INCLUDE nowhere.db\n")
	it, err := NewFileReaderIter(path)
	require.NoError(t, err)

	assert.False(t, it.Scan())
	require.Error(t, it.Err())
	assert.False(t, it.Scan(), "a failed iterator must stay done")
}
