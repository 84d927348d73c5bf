package models

// Post represents a row in the "posts" table.
type Post struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// PostWithOwner is the list projection: a post plus its owner's id and name.
type PostWithOwner struct {
	Post
	User Owner `json:"user"`
}

// PostRecord is one element of posts.json.
type PostRecord struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Post converts the fixture record into the row written by the upsert.
func (r PostRecord) Post() Post {
	return Post{ID: r.ID, UserID: r.UserID, Title: r.Title, Body: r.Body}
}

// Counts are the table totals observed in one consistent snapshot after a
// reseed.
type Counts struct {
	UserCount int64 `json:"userCount"`
	PostCount int64 `json:"postCount"`
}
