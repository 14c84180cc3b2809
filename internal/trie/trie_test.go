package trie

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authoritative-core/internal/dnsname"
)

func TestBuildNodeCreatesChain(t *testing.T) {
	root := NewNode[int](0)
	path := []dnsname.Labelette{
		dnsname.NormalLabelette([]byte("com")),
		dnsname.NormalLabelette([]byte("example")),
		dnsname.NormalLabelette([]byte("www")),
	}
	calls := 0
	node, err := root.BuildNode(path, func(parent int) (int, error) {
		calls++
		return parent + 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, node.Value)
}

func TestBuildNodeIsIdempotent(t *testing.T) {
	root := NewNode[int](0)
	path := []dnsname.Labelette{dnsname.NormalLabelette([]byte("com"))}
	n1, err := root.BuildNode(path, func(int) (int, error) { return 1, nil })
	require.NoError(t, err)
	n2, err := root.BuildNode(path, func(int) (int, error) { return 99, nil })
	require.NoError(t, err)
	assert.Same(t, n1, n2)
	assert.Equal(t, 1, n2.Value)
}

func TestGetChildCaseInsensitive(t *testing.T) {
	root := NewNode[int](0)
	_, err := root.BuildChild(dnsname.NormalLabelette([]byte("Example")), func() (int, error) { return 1, nil })
	require.NoError(t, err)

	child, ok := root.GetChild(dnsname.NormalLabelette([]byte("EXAMPLE")))
	require.True(t, ok)
	assert.Equal(t, 1, child.Value)
}

func TestBitLabelChildren(t *testing.T) {
	root := NewNode[int](0)
	zero, err := root.BuildChild(dnsname.BitLabelette(false), func() (int, error) { return 10, nil })
	require.NoError(t, err)
	one, err := root.BuildChild(dnsname.BitLabelette(true), func() (int, error) { return 20, nil })
	require.NoError(t, err)
	assert.NotSame(t, zero, one)

	got, ok := root.GetChild(dnsname.BitLabelette(false))
	require.True(t, ok)
	assert.Same(t, zero, got)
}

func TestBuildChildPropagatesError(t *testing.T) {
	root := NewNode[int](0)
	wantErr := errors.New("boom")
	_, err := root.BuildChild(dnsname.NormalLabelette([]byte("a")), func() (int, error) {
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	_, ok := root.GetChild(dnsname.NormalLabelette([]byte("a")))
	assert.False(t, ok, "a failed insert must not leave a child behind")
}

func TestGetChildMissing(t *testing.T) {
	root := NewNode[int](0)
	_, ok := root.GetChild(dnsname.NormalLabelette([]byte("missing")))
	assert.False(t, ok)
}
