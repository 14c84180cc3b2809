package dnsname

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNameAbsolute(t *testing.T) {
	n, err := ResolveName("www.example.com.", nil)
	require.NoError(t, err)
	assert.Equal(t, "www.example.com.", n.String())
}

func TestResolveNameRelativeToOrigin(t *testing.T) {
	origin, err := ResolveName("example.com.", nil)
	require.NoError(t, err)

	n, err := ResolveName("www", &origin)
	require.NoError(t, err)
	assert.Equal(t, "www.example.com.", n.String())
}

func TestResolveNameAtSignIsOrigin(t *testing.T) {
	origin, err := ResolveName("example.com.", nil)
	require.NoError(t, err)

	n, err := ResolveName("@", &origin)
	require.NoError(t, err)
	assert.True(t, n.Equal(origin))
}

func TestResolveNameRequiresOriginWhenRelative(t *testing.T) {
	_, err := ResolveName("www", nil)
	assert.ErrorIs(t, err, ErrNoOrigin)
}

func TestResolveNameCaseInsensitiveEqual(t *testing.T) {
	a, err := ResolveName("WWW.Example.COM.", nil)
	require.NoError(t, err)
	b, err := ResolveName("www.example.com.", nil)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestResolveNameRejectsBitString(t *testing.T) {
	_, err := ResolveName(`\[b11010000/4].example.com.`, nil)
	assert.ErrorIs(t, err, ErrBitStringName)
}

func TestResolveNameRejectsEmptyLabel(t *testing.T) {
	_, err := ResolveName("www..example.com.", nil)
	assert.Error(t, err)
}

func TestResolveNameRejectsLabelTooLong(t *testing.T) {
	long := make([]byte, MaxLabelLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := ResolveName(string(long)+".com.", nil)
	assert.ErrorIs(t, err, ErrLabelTooLong)
}

func TestResolveNameDecodesEscapes(t *testing.T) {
	n, err := ResolveName(`foo\.bar.example.com.`, nil)
	require.NoError(t, err)
	// the escaped dot stays part of the first label, not a separator
	rootFirst := n.LabelettesRootFirst()
	require.Len(t, rootFirst, 4) // root, com, example, foo.bar
	assert.Equal(t, "foo.bar", string(rootFirst[3].Normal))
}

func TestResolveNameDecimalEscape(t *testing.T) {
	n, err := ResolveName(`a\046b.example.com.`, nil)
	require.NoError(t, err)
	rootFirst := n.LabelettesRootFirst()
	assert.Equal(t, "a.b", string(rootFirst[3].Normal))
}

func TestStripSuffix(t *testing.T) {
	owner, err := ResolveName("www.example.com.", nil)
	require.NoError(t, err)
	zoneName, err := ResolveName("example.com.", nil)
	require.NoError(t, err)

	rel, ok := owner.StripSuffix(zoneName)
	require.True(t, ok)
	assert.False(t, rel.IsApex())
	assert.Equal(t, []Labelette{NormalLabelette([]byte("www"))}, rel.LabelettesRootFirst())
}

func TestStripSuffixApex(t *testing.T) {
	zoneName, err := ResolveName("example.com.", nil)
	require.NoError(t, err)

	rel, ok := zoneName.StripSuffix(zoneName)
	require.True(t, ok)
	assert.True(t, rel.IsApex())
}

func TestStripSuffixMismatch(t *testing.T) {
	owner, err := ResolveName("www.example.org.", nil)
	require.NoError(t, err)
	zoneName, err := ResolveName("example.com.", nil)
	require.NoError(t, err)

	_, ok := owner.StripSuffix(zoneName)
	assert.False(t, ok)
}

func TestRelativeNameStrictlyBelow(t *testing.T) {
	zoneName, err := ResolveName("example.com.", nil)
	require.NoError(t, err)

	nsOwner, err := ResolveName("ns1.sub.example.com.", nil)
	require.NoError(t, err)
	glueOwner, err := ResolveName("a.ns1.sub.example.com.", nil)
	require.NoError(t, err)

	nsRel, ok := nsOwner.StripSuffix(zoneName)
	require.True(t, ok)
	glueRel, ok := glueOwner.StripSuffix(zoneName)
	require.True(t, ok)

	assert.True(t, glueRel.StrictlyBelow(nsRel))
	assert.False(t, nsRel.StrictlyBelow(nsRel))
}

func TestFromWire(t *testing.T) {
	n, err := FromWire("example.com.")
	require.NoError(t, err)
	assert.Equal(t, "example.com.", n.String())
}
