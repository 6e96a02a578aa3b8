package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []DisplayItem {
	return []DisplayItem{
		{Title: "Pillars of Creation", Source: SourceNASA, Summary: "Eagle nebula in infrared"},
		{Title: "Mars Rover: Curiosity - Mast Camera", Source: SourceNASA, Summary: "Rover sol 1000 - 2015-05-30"},
		{Title: "ISRO Updates", Source: SourceISRO, Summary: "Official ISRO updates and mission news."},
	}
}

func TestApply_EmptyFilterReturnsEverything(t *testing.T) {
	items := sampleItems()
	assert.Equal(t, items, Apply(items, Filter{}))
	assert.Equal(t, items, Apply(items, Filter{Query: "", Source: FilterAll}))
}

func TestApply_QueryIsCaseInsensitive(t *testing.T) {
	items := sampleItems()

	got := Apply(items, Filter{Query: "NEBULA"})
	require.Len(t, got, 1)
	assert.Equal(t, "Pillars of Creation", got[0].Title)

	got = Apply(items, Filter{Query: "curiosity"})
	require.Len(t, got, 1)
	assert.Equal(t, SourceNASA, got[0].Source)
}

func TestApply_SourceFilterIsCaseInsensitive(t *testing.T) {
	got := Apply(sampleItems(), Filter{Source: "isro"})
	require.Len(t, got, 1)
	assert.Equal(t, "ISRO Updates", got[0].Title)
}

func TestApply_UnmatchedSourceReturnsEmpty(t *testing.T) {
	assert.Empty(t, Apply(sampleItems(), Filter{Source: "ESA"}))
}

func TestApply_QueryAndSourceCombine(t *testing.T) {
	assert.Empty(t, Apply(sampleItems(), Filter{Query: "isro", Source: "NASA"}))
	assert.Len(t, Apply(sampleItems(), Filter{Query: "rover", Source: "nasa"}), 1)
}

func TestParseSource(t *testing.T) {
	s, err := ParseSource(" esa ")
	require.NoError(t, err)
	assert.Equal(t, SourceESA, s)

	_, err = ParseSource("JAXA")
	assert.Error(t, err)
}

func TestNextSourceFilter_Cycles(t *testing.T) {
	seen := []string{}
	cur := FilterAll
	for i := 0; i < len(KnownSources())+1; i++ {
		cur = NextSourceFilter(cur)
		seen = append(seen, cur)
	}
	assert.Equal(t, []string{"NASA", "ISRO", "ESA", FilterAll}, seen)
	assert.Equal(t, FilterAll, NextSourceFilter("bogus"))
}

func TestExcerpt_AlwaysAddsEllipsis(t *testing.T) {
	assert.Equal(t, "short...", Excerpt("short", 220))
	long := strings.Repeat("ä", 300)
	got := Excerpt(long, 220)
	assert.Equal(t, 223, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestDisplayItem_BodyPrefersLong(t *testing.T) {
	assert.Equal(t, "full", DisplayItem{Summary: "short", Long: "full"}.Body())
	assert.Equal(t, "short", DisplayItem{Summary: "short"}.Body())
}

func TestStaticEntries_UseKnownTags(t *testing.T) {
	for _, item := range StaticEntries() {
		_, err := ParseSource(string(item.Source))
		assert.NoError(t, err)
	}
}
