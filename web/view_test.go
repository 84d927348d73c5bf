package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/postboard/models"
)

func post(id, owner int64, name, title, body string) models.PostWithOwner {
	return models.PostWithOwner{
		Post: models.Post{ID: id, UserID: owner, Title: title, Body: body},
		User: models.Owner{ID: owner, Name: name},
	}
}

func samplePosts() []models.PostWithOwner {
	return []models.PostWithOwner{
		post(1, 2, "Ervin Howell", "qui est esse", "est rerum tempore vitae"),
		post(2, 1, "Leanne Graham", "Sunt aut facere", "quia et suscipit"),
		post(3, 2, "Ervin Howell", "ea molestias", "et iusto sed quo iure"),
		post(4, 3, "Clementine", "eum et est", "ullam et saepe REICIENDIS"),
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcde", Truncate("abcde", 5))
	assert.Equal(t, "abc...", Truncate("abc   defgh", 5))
	assert.Equal(t, "héll...", Truncate("héllo wörld", 4))

	long := strings.Repeat("x", 300)
	got := Truncate(long, previewLen)
	assert.Equal(t, previewLen+3, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"Leanne Graham":           "LG",
		"mrs. dennis schulist":    "MD",
		"Clementine":              "CL",
		"X":                       "X",
		"":                        "NA",
		"   ":                     "NA",
		"Chelsey Dietrich Junior": "CD",
	}
	for name, want := range cases {
		assert.Equal(t, want, Initials(name), "name %q", name)
	}
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, "1 min read", ReadingTime(""))
	assert.Equal(t, "1 min read", ReadingTime("a few words"))
	assert.Equal(t, "1 min read", ReadingTime(strings.Repeat("w ", 269)))
	assert.Equal(t, "2 min read", ReadingTime(strings.Repeat("w ", 270)))
	assert.Equal(t, "3 min read", ReadingTime(strings.Repeat("w ", 540)))
}

func TestOwnerOptions(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3}, OwnerOptions(samplePosts()))
	assert.Empty(t, OwnerOptions(nil))
}

func TestFilter_Apply(t *testing.T) {
	posts := samplePosts()

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"all", Filter{Owner: ownerAll}, []int64{1, 2, 3, 4}},
		{"owner", Filter{Owner: "2"}, []int64{1, 3}},
		{"search title", Filter{Search: "  SUNT ", Owner: ownerAll}, []int64{2}},
		{"search body", Filter{Search: "reiciendis", Owner: ownerAll}, []int64{4}},
		{"both", Filter{Search: "esse", Owner: "2"}, []int64{1}},
		{"no match", Filter{Search: "nothing here", Owner: ownerAll}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]int64, 0)
			for _, p := range tt.filter.Apply(posts) {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_Normalize(t *testing.T) {
	options := []int64{1, 2}
	assert.Equal(t, ownerAll, Filter{}.Normalize(options).Owner)
	assert.Equal(t, "2", Filter{Owner: "2"}.Normalize(options).Owner)
	assert.Equal(t, ownerAll, Filter{Owner: "9"}.Normalize(options).Owner)
	assert.Equal(t, ownerAll, Filter{Owner: "abc"}.Normalize(options).Owner)

	assert.False(t, Filter{Owner: ownerAll, Search: "  "}.Active())
	assert.True(t, Filter{Owner: "1"}.Active())
	assert.True(t, Filter{Owner: "1"}.Selected(1))
	assert.False(t, Filter{Owner: "1"}.Selected(2))
}

func TestBuildPage_States(t *testing.T) {
	page := buildPage(nil, Filter{}, 0)
	assert.Equal(t, StateEmpty, page.State)
	assert.NotNil(t, page.Cards)

	page = buildPage(samplePosts(), Filter{Search: "zzz"}, 0)
	assert.Equal(t, StateNoMatches, page.State)
	assert.Equal(t, Stats{Total: "4", Authors: "3", Showing: "0"}, page.Stats)

	page = buildPage(samplePosts(), Filter{Owner: "2"}, 0)
	assert.Equal(t, StateReady, page.State)
	assert.Equal(t, "2", page.Stats.Showing)
	require.Len(t, page.Cards, 2)
	assert.Equal(t, "EH", page.Cards[0].Initials)
	assert.Nil(t, page.Confirm)
}

func TestBuildPage_Confirm(t *testing.T) {
	page := buildPage(samplePosts(), Filter{Owner: "1"}, 4)
	require.NotNil(t, page.Confirm)
	assert.Equal(t, int64(4), page.Confirm.ID)
	assert.Equal(t, "eum et est", page.Confirm.Title)

	page = buildPage(samplePosts(), Filter{}, 99)
	assert.Nil(t, page.Confirm)
}

func TestStats_Humanized(t *testing.T) {
	posts := make([]models.PostWithOwner, 0, 1200)
	for i := int64(1); i <= 1200; i++ {
		posts = append(posts, post(i, 1, "A B", "t", "b"))
	}
	page := buildPage(posts, Filter{}, 0)
	assert.Equal(t, "1,200", page.Stats.Total)
	assert.Equal(t, "1", page.Stats.Authors)
}
