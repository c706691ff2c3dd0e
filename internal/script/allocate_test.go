package script

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpreadIdentity(t *testing.T) {
	units := []string{"a", "b", "c"}
	got := Spread(units, 3)
	assert.Equal(t, units, got)
}

func TestSpreadMoreUnitsThanBuckets(t *testing.T) {
	// 5 sections into 2 buckets: ceil(5/2)=3 per bucket, last absorbs the rest.
	units := []string{"s1", "s2", "s3", "s4", "s5"}
	got := Spread(units, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "s1\n\ns2\n\ns3", got[0])
	assert.Equal(t, "s4\n\ns5", got[1])
}

func TestSpreadFewerUnitsThanBuckets(t *testing.T) {
	got := Spread([]string{"only"}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "only", got[0])
	assert.Equal(t, "", got[1])
	assert.Equal(t, "", got[2])
}

func TestSpreadNoUnits(t *testing.T) {
	got := Spread(nil, 4)
	require.Len(t, got, 4)
	for _, s := range got {
		assert.Equal(t, "", s)
	}
}

func TestSpreadAlwaysReturnsBucketCount(t *testing.T) {
	for units := 0; units <= 12; units++ {
		for buckets := 1; buckets <= 7; buckets++ {
			in := make([]string, units)
			for i := range in {
				in[i] = fmt.Sprintf("u%d", i)
			}
			got := Spread(in, buckets)
			require.Len(t, got, buckets, "units=%d buckets=%d", units, buckets)
			// no unit is dropped
			joined := strings.Join(got, " ")
			for _, u := range in {
				assert.Contains(t, joined, u)
			}
		}
	}
}

func TestByWordsTwoSlidesScenario(t *testing.T) {
	units := Sentences("Sentence one. Sentence two. Sentence three. Sentence four.")
	require.Len(t, units, 4)
	got := ByWords(units, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "Sentence one. Sentence two.", got[0])
	assert.Equal(t, "Sentence three. Sentence four.", got[1])
}

func TestByWordsSingleSentenceManySlides(t *testing.T) {
	got := ByWords([]string{"Only one sentence here."}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "Only one sentence here.", got[0])
	assert.Equal(t, "", got[1])
	assert.Equal(t, "", got[2])
}

func TestByWordsLastBucketAbsorbsRemainder(t *testing.T) {
	// One huge opener followed by many short units: the soft ceiling stops the
	// early buckets from hoarding, the final bucket takes all that is left.
	units := []string{
		strings.Repeat("word ", 50),
		"a b.", "c d.", "e f.", "g h.", "i j.", "k l.",
	}
	got := ByWords(units, 3)
	require.Len(t, got, 3)
	for _, u := range units {
		assert.Contains(t, strings.Join(got, " "), strings.TrimSpace(u))
	}
	assert.NotEqual(t, "", got[2])
}

func TestByWordsDeterministic(t *testing.T) {
	units := Sentences("Alpha beta gamma. Delta epsilon. Zeta eta theta iota. Kappa. Lambda mu nu xi omicron.")
	a := ByWords(units, 3)
	b := ByWords(units, 3)
	assert.Equal(t, a, b)
}

func TestByWordsEveryBucketGetsAUnitWhileInputLasts(t *testing.T) {
	units := []string{"one.", "two.", "three.", "four.", "five."}
	got := ByWords(units, 5)
	for i, s := range got {
		assert.NotEqual(t, "", s, "bucket %d", i)
	}
}
