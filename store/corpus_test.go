package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-anagram-search/internal/tokenizer"
)

func TestParseWordList(t *testing.T) {
	payload := []byte("listen\r\nSilent\n\n  enlist  \nA-bomb\n")

	words, err := ParseWordList(payload)
	require.NoError(t, err)
	assert.Equal(t, []string{"listen", "Silent", "enlist", "A-bomb"}, words)
}

func TestParseWordList_Unusable(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"nil payload", nil},
		{"empty payload", []byte("")},
		{"whitespace only", []byte("\n \r\n\t\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWordList(tt.payload)
			assert.Error(t, err)
		})
	}
}

func TestNewCorpus(t *testing.T) {
	words := []string{"listen", "silent", "enlist", "banana", "tea", "eat"}
	c := NewCorpus(words, "test://fixture", 3)

	assert.Equal(t, 6, c.Len())
	assert.Equal(t, words, c.Words())
	assert.Equal(t, uint64(3), c.Epoch)
	assert.Equal(t, "test://fixture", c.Source)
	assert.False(t, c.LoadedAt.IsZero())
	assert.Equal(t, []string{"tea", "eat"}, c.Lookup(tokenizer.Signature("eat")))

	info := c.Info()
	assert.Equal(t, uint64(3), info.Epoch)
	assert.Len(t, info.Checksum, 16)
	assert.Equal(t, 6, info.Index.Words)
	assert.Equal(t, 3, info.Index.DistinctSignature)
}

func TestChecksum(t *testing.T) {
	a := Checksum([]string{"tea", "eat"})
	b := Checksum([]string{"tea", "eat"})
	c := Checksum([]string{"eat", "tea"})
	d := Checksum([]string{"teae", "at"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}
