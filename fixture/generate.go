package fixture

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/Pallinder/go-randomdata"

	"github.com/Skryldev/postboard/models"
)

// randomdata keeps its source in a package global.
var generateMu sync.Mutex

// Generate builds a referentially valid fixture set: user ids 1..users, post
// ids 1..posts, every post owned by one of the generated users. The same seed
// yields the same set.
func Generate(users, posts int, seed int64) (*Set, error) {
	if users < 0 || posts < 0 {
		return nil, fmt.Errorf("fixture: negative counts (users=%d, posts=%d)", users, posts)
	}
	if users == 0 && posts > 0 {
		return nil, fmt.Errorf("fixture: %d posts need at least one user", posts)
	}

	generateMu.Lock()
	defer generateMu.Unlock()
	randomdata.CustomRand(rand.New(rand.NewSource(seed)))

	set := &Set{
		Users: make([]models.UserRecord, 0, users),
		Posts: make([]models.PostRecord, 0, posts),
	}

	for i := 1; i <= users; i++ {
		handle := fmt.Sprintf("%s%d", randomdata.SillyName(), i)
		u := models.UserRecord{
			ID:       int64(i),
			Name:     randomdata.FullName(randomdata.RandomGender),
			Username: handle,
			Email:    strings.ToLower(handle) + "@" + randomdata.StringSample("example.com", "example.org", "example.net"),
		}
		if randomdata.Boolean() {
			phone := randomdata.PhoneNumber()
			u.Phone = &phone
		}
		if randomdata.Boolean() {
			site := strings.ToLower(handle) + ".example.com"
			u.Website = &site
		}
		set.Users = append(set.Users, u)
	}

	for i := 1; i <= posts; i++ {
		set.Posts = append(set.Posts, models.PostRecord{
			ID:     int64(i),
			UserID: int64(randomdata.Number(1, users+1)),
			Title:  randomdata.Adjective() + " " + randomdata.Noun(),
			Body:   randomdata.Paragraph(),
		})
	}
	return set, nil
}
