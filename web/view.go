package web

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/Skryldev/postboard/models"
)

const (
	previewLen   = 220
	wordsPerMin  = 180
	ownerAll     = "all"
	initialsNone = "NA"
)

// Truncate shortens s to at most n runes, trimming trailing whitespace of the
// cut and appending "...". Strings of n runes or fewer are returned as is.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:n]), unicode.IsSpace) + "..."
}

// Initials is the avatar text for an author name: the first letter of each of
// the first two words, or the first two letters of a single word, upper-cased.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return initialsNone
	case 1:
		r := []rune(parts[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	}
	a, _ := utf8.DecodeRuneInString(parts[0])
	b, _ := utf8.DecodeRuneInString(parts[1])
	return strings.ToUpper(string([]rune{a, b}))
}

// ReadingTime estimates minutes to read body at 180 words per minute, never
// less than one.
func ReadingTime(body string) string {
	words := len(strings.Fields(body))
	minutes := int(math.Max(1, math.Round(float64(words)/wordsPerMin)))
	return strconv.Itoa(minutes) + " min read"
}

// Filter is the dashboard's in-memory narrowing of the loaded list.
type Filter struct {
	// Search matches title or body, case-insensitively, after trimming.
	Search string
	// Owner is "all" or a decimal user id.
	Owner string
}

func (f Filter) needle() string { return strings.ToLower(strings.TrimSpace(f.Search)) }

// Active reports whether either filter narrows the list.
func (f Filter) Active() bool { return f.Owner != ownerAll || f.needle() != "" }

// Selected reports whether the owner select should show id.
func (f Filter) Selected(id int64) bool { return f.Owner == strconv.FormatInt(id, 10) }

// OwnerOptions are the distinct owner ids present in posts, ascending.
func OwnerOptions(posts []models.PostWithOwner) []int64 {
	seen := make(map[int64]struct{}, len(posts))
	ids := make([]int64, 0)
	for _, p := range posts {
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		ids = append(ids, p.UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Normalize resets an owner selection that is not among options to "all".
func (f Filter) Normalize(options []int64) Filter {
	if f.Owner == "" {
		f.Owner = ownerAll
	}
	if f.Owner == ownerAll {
		return f
	}
	for _, id := range options {
		if strconv.FormatInt(id, 10) == f.Owner {
			return f
		}
	}
	f.Owner = ownerAll
	return f
}

// Apply returns the posts matching both the owner and the search filter,
// preserving order.
func (f Filter) Apply(posts []models.PostWithOwner) []models.PostWithOwner {
	needle := f.needle()
	var owner int64
	if f.Owner != ownerAll {
		owner, _ = strconv.ParseInt(f.Owner, 10, 64)
	}

	out := make([]models.PostWithOwner, 0, len(posts))
	for _, p := range posts {
		if f.Owner != ownerAll && p.UserID != owner {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Body), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Stats are the three counters shown above the list.
type Stats struct {
	Total   string
	Authors string
	Showing string
}

func newStats(all, visible []models.PostWithOwner) Stats {
	authors := make(map[int64]struct{}, len(all))
	for _, p := range all {
		authors[p.User.ID] = struct{}{}
	}
	return Stats{
		Total:   humanize.Comma(int64(len(all))),
		Authors: humanize.Comma(int64(len(authors))),
		Showing: humanize.Comma(int64(len(visible))),
	}
}

// Card is one rendered post.
type Card struct {
	ID          int64
	Title       string
	Preview     string
	AuthorName  string
	UserID      int64
	Initials    string
	ReadingTime string
}

func newCard(p models.PostWithOwner) Card {
	return Card{
		ID:          p.ID,
		Title:       p.Title,
		Preview:     Truncate(p.Body, previewLen),
		AuthorName:  p.User.Name,
		UserID:      p.UserID,
		Initials:    Initials(p.User.Name),
		ReadingTime: ReadingTime(p.Body),
	}
}

// Page states, one per distinct rendering of the list area.
const (
	StateReady     = "ready"
	StateLoadError = "load-error"
	StateEmpty     = "empty"
	StateNoMatches = "no-matches"
)

// Page is everything the posts template renders.
type Page struct {
	State        string
	Banner       bool
	Flash        string
	ReseedError  string
	DeleteError  string
	Filter       Filter
	OwnerOptions []int64
	Stats        Stats
	Cards        []Card
	Confirm      *Card
}

// buildPage derives the page for posts under f. confirmID selects the post
// whose delete confirmation is open; zero means none.
func buildPage(posts []models.PostWithOwner, f Filter, confirmID int64) Page {
	options := OwnerOptions(posts)
	f = f.Normalize(options)
	visible := f.Apply(posts)

	page := Page{
		State:        StateReady,
		Filter:       f,
		OwnerOptions: options,
		Stats:        newStats(posts, visible),
		Cards:        make([]Card, 0, len(visible)),
	}
	switch {
	case len(posts) == 0:
		page.State = StateEmpty
	case len(visible) == 0:
		page.State = StateNoMatches
	}
	for _, p := range visible {
		page.Cards = append(page.Cards, newCard(p))
	}
	if confirmID != 0 {
		for _, p := range posts {
			if p.ID == confirmID {
				c := newCard(p)
				page.Confirm = &c
				break
			}
		}
	}
	return page
}
