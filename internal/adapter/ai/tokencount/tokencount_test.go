package tokencount

import (
	"errors"
	"strings"
	"testing"

	tiktoken "github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
)

// offline returns a counter that never loads an encoding, so tests exercise
// the character estimate without network access.
func offline() *Counter {
	return &Counter{encoding: defaultEncoding, load: func(string) (*tiktoken.Tiktoken, error) {
		return nil, errors.New("offline")
	}}
}

func TestCount_Estimate(t *testing.T) {
	c := offline()
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("abc"))
	assert.Equal(t, 1, c.Count("abcd"))
	assert.Equal(t, 2, c.Count("abcde"))
	assert.Equal(t, 1, c.Count("héé"))
}

func TestTruncate_Estimate(t *testing.T) {
	c := offline()

	out, cut := c.Truncate("abcdefgh", 2)
	assert.Equal(t, "abcdefgh", out)
	assert.False(t, cut)

	out, cut = c.Truncate("abcdefghij", 2)
	assert.Equal(t, "abcdefgh", out)
	assert.True(t, cut)

	out, cut = c.Truncate("abc", 0)
	assert.Equal(t, "", out)
	assert.True(t, cut)
}

func TestFit(t *testing.T) {
	c := offline()
	blocks := []string{strings.Repeat("a", 8), strings.Repeat("b", 8), strings.Repeat("c", 8)}

	out, n := c.Fit(blocks, "\n\n", 100)
	assert.Equal(t, 3, n)
	assert.Equal(t, strings.Join(blocks, "\n\n"), out)

	// 8 + 2 + 8 runes = 5 tokens; adding the third block needs 7.
	out, n = c.Fit(blocks, "\n\n", 6)
	assert.Equal(t, 2, n)
	assert.Equal(t, blocks[0]+"\n\n"+blocks[1], out)

	out, n = c.Fit([]string{strings.Repeat("x", 40)}, "\n\n", 3)
	assert.Equal(t, 1, n)
	assert.Equal(t, strings.Repeat("x", 12), out)
}

func TestNewEstimator(t *testing.T) {
	assert.Equal(t, 3, NewEstimator().Count("abcdefghij"))
}

func TestEncoderLoadedOnce(t *testing.T) {
	calls := 0
	c := &Counter{encoding: defaultEncoding, load: func(string) (*tiktoken.Tiktoken, error) {
		calls++
		return nil, errors.New("offline")
	}}
	c.Count("one")
	c.Count("two")
	_, _ = c.Truncate("three", 1)
	assert.Equal(t, 1, calls)
}

func TestCounter_Offline(t *testing.T) {
	c := NewCounter()
	n := c.Count("The quick brown fox jumps over the lazy dog.")
	assert.GreaterOrEqual(t, n, 8)
	assert.LessOrEqual(t, n, 12)

	out, cut := c.Truncate(strings.Repeat("hello world ", 50), 10)
	assert.True(t, cut)
	assert.LessOrEqual(t, c.Count(out), 10)
}
