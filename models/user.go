package models

// User represents a row in the "users" table.
// ID is supplied by the fixture, never generated by the store.
// Phone and Website are nullable columns; nil is written as NULL.
type User struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Website  *string `json:"website"`
}

// UserRecord is one element of users.json. Optional fields that are absent
// from the document decode to nil.
type UserRecord struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
	Website  *string `json:"website,omitempty"`
}

// User converts the fixture record into the row written by the upsert.
func (r UserRecord) User() User {
	return User{
		ID:       r.ID,
		Name:     r.Name,
		Username: r.Username,
		Email:    r.Email,
		Phone:    r.Phone,
		Website:  r.Website,
	}
}

// Owner is the minimal view of a User attached to every listed post.
type Owner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
