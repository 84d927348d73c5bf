// Package fixture reads and writes the two JSON seed documents, users.json
// and posts.json, that the reseed routine loads into the store.
//
// Load only checks the top-level shape: each document must be a JSON array.
// Its elements stay raw until the reseed routine asks for them one at a time,
// so a bad record fails where it sits in the write order and the records
// before it are still written.
package fixture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Skryldev/postboard/models"
)

const (
	UsersFile = "users.json"
	PostsFile = "posts.json"
)

var (
	// ErrNotFound is returned when a fixture file does not exist.
	ErrNotFound = errors.New("fixture: file not found")

	// ErrIO is returned when a fixture file exists but cannot be read.
	ErrIO = errors.New("fixture: read failed")

	// ErrSyntax is returned when a fixture file is not valid JSON.
	ErrSyntax = errors.New("fixture: invalid JSON")

	// ErrMalformed is returned when a fixture parses but its top-level value
	// is not an array.
	ErrMalformed = errors.New("fixture: malformed")

	// ErrInvalidRecord is returned when one array element does not decode
	// into a record or carries an id that is not a positive integer.
	ErrInvalidRecord = errors.New("fixture: invalid record")
)

// Error names the fixture file that failed and why. Err is one of the
// package sentinels; Cause is the underlying error, if any.
type Error struct {
	File  string
	Err   error
	Cause error
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Err, ErrMalformed) && e.Cause == nil:
		return fmt.Sprintf("%s must be an array.", e.File)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v: %v", e.File, e.Err, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// RecordError names the array element that failed to decode.
type RecordError struct {
	File  string
	Index int
	Cause error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s[%d]: invalid record: %v", e.File, e.Index, e.Cause)
}

func (e *RecordError) Unwrap() []error { return []error{ErrInvalidRecord, e.Cause} }

// Document is one loaded pair of fixture arrays with the elements kept raw.
type Document struct {
	Users []json.RawMessage
	Posts []json.RawMessage
}

// Load reads dir/users.json and then dir/posts.json. Nothing is returned
// unless both documents are arrays.
func Load(dir string) (*Document, error) {
	users, err := readArray(dir, UsersFile)
	if err != nil {
		return nil, err
	}
	posts, err := readArray(dir, PostsFile)
	if err != nil {
		return nil, err
	}
	return &Document{Users: users, Posts: posts}, nil
}

// User decodes the i-th element of users.json.
func (d *Document) User(i int) (models.UserRecord, error) {
	var rec models.UserRecord
	if err := decodeRecord(d.Users[i], &rec); err != nil {
		return rec, &RecordError{File: UsersFile, Index: i, Cause: err}
	}
	if rec.ID <= 0 {
		return rec, &RecordError{File: UsersFile, Index: i, Cause: fmt.Errorf("id %d is not a positive integer", rec.ID)}
	}
	return rec, nil
}

// Post decodes the i-th element of posts.json.
func (d *Document) Post(i int) (models.PostRecord, error) {
	var rec models.PostRecord
	if err := decodeRecord(d.Posts[i], &rec); err != nil {
		return rec, &RecordError{File: PostsFile, Index: i, Cause: err}
	}
	switch {
	case rec.ID <= 0:
		return rec, &RecordError{File: PostsFile, Index: i, Cause: fmt.Errorf("id %d is not a positive integer", rec.ID)}
	case rec.UserID <= 0:
		return rec, &RecordError{File: PostsFile, Index: i, Cause: fmt.Errorf("userId %d is not a positive integer", rec.UserID)}
	}
	return rec, nil
}

func decodeRecord(raw json.RawMessage, out any) error {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("expected an object, got %.20q", trimmed)
	}
	return json.Unmarshal(raw, out)
}

// Set is a pair of fixture documents built in memory.
type Set struct {
	Users []models.UserRecord
	Posts []models.PostRecord
}

// Document encodes every record of s so it can be applied like a loaded
// fixture.
func (s *Set) Document() (*Document, error) {
	doc := &Document{
		Users: make([]json.RawMessage, 0, len(s.Users)),
		Posts: make([]json.RawMessage, 0, len(s.Posts)),
	}
	for _, u := range s.Users {
		b, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("fixture: encode user %d: %w", u.ID, err)
		}
		doc.Users = append(doc.Users, b)
	}
	for _, p := range s.Posts {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("fixture: encode post %d: %w", p.ID, err)
		}
		doc.Posts = append(doc.Posts, b)
	}
	return doc, nil
}

func readArray(dir, name string) ([]json.RawMessage, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{File: name, Err: ErrNotFound, Cause: err}
		}
		return nil, &Error{File: name, Err: ErrIO, Cause: err}
	}

	var doc json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &Error{File: name, Err: ErrSyntax, Cause: err}
	}
	if trimmed := bytes.TrimSpace(doc); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &Error{File: name, Err: ErrMalformed}
	}

	records := make([]json.RawMessage, 0)
	if err := json.Unmarshal(doc, &records); err != nil {
		return nil, &Error{File: name, Err: ErrMalformed, Cause: err}
	}
	return records, nil
}

// Write stores set as dir/users.json and dir/posts.json, creating dir when
// needed. Optional user fields that are nil are omitted.
func Write(dir string, set *Set) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fixture: mkdir %s: %w", dir, err)
	}
	users := set.Users
	if users == nil {
		users = []models.UserRecord{}
	}
	posts := set.Posts
	if posts == nil {
		posts = []models.PostRecord{}
	}
	if err := writeJSON(filepath.Join(dir, UsersFile), users); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, PostsFile), posts)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("fixture: encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("fixture: write %s: %w", filepath.Base(path), err)
	}
	return nil
}
