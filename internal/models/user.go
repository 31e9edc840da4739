package models

import (
	"encoding/json"
	"strings"
)

// AnonymousAuthor is posted as the comment author when the viewer has neither a name nor an email.
const AnonymousAuthor = "Usuario"

// User is an account profile. Password is only ever sent, never displayed.
type User struct {
	ID        string    `json:"_id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Age       int       `json:"age,omitempty"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	Favorites Favorites `json:"favorites,omitempty"`
}

// UnmarshalJSON accepts either "_id" or "id" as the user identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	if err := json.Unmarshal(data, (*alias)(u)); err != nil {
		return err
	}
	if u.ID == "" {
		id, err := decodeID(data)
		if err != nil {
			return err
		}
		u.ID = id
	}
	return nil
}

// Key implements [Identifiable].
func (u *User) Key() string { return u.ID }

// DisplayName is "First Last" trimmed, falling back to the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.FirstName) != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return strings.TrimSpace(u.Email)
}

// AuthorName is the name posted with a new comment.
func (u *User) AuthorName() string {
	if name := u.DisplayName(); name != "" {
		return name
	}
	return AnonymousAuthor
}

// Viewer identifies who is looking at a comment list.
type Viewer struct {
	ID   string
	Name string
}

// ViewerOf builds the [Viewer] for u.
func ViewerOf(u *User) Viewer {
	if u == nil {
		return Viewer{}
	}
	return Viewer{ID: u.ID, Name: u.DisplayName()}
}

// Anonymous reports whether the viewer has no identity at all.
func (v Viewer) Anonymous() bool {
	return v.ID == "" && strings.TrimSpace(v.Name) == ""
}

// AuthorName is the name a comment by v is posted under.
func (v Viewer) AuthorName() string {
	if name := strings.TrimSpace(v.Name); name != "" {
		return name
	}
	return AnonymousAuthor
}

// CanDelete reports whether v may be offered a delete control for c.
//
// When both sides carry a user id the ids decide. Otherwise the comment's author
// name must equal the viewer's display name. An anonymous viewer never matches.
func CanDelete(v Viewer, c Comment) bool {
	if v.Anonymous() {
		return false
	}
	if v.ID != "" && c.UserID != "" {
		return v.ID == c.UserID
	}
	name := strings.TrimSpace(v.Name)
	return name != "" && name == strings.TrimSpace(c.User)
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email" validate:"required,moovie_email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up request body. ConfirmPassword never leaves the client.
type Registration struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Age             int    `json:"age" validate:"gte=1,lte=120"`
	Email           string `json:"email" validate:"required,moovie_email"`
	Password        string `json:"password" validate:"required,moovie_password"`
	ConfirmPassword string `json:"-" validate:"eqfield=Password"`
}

// ProfileUpdate is the body of PUT /api/users/:id. Zero values are omitted.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Age       int    `json:"age,omitempty" validate:"omitempty,gte=1,lte=120"`
	Email     string `json:"email,omitempty" validate:"omitempty,moovie_email"`
	Password  string `json:"password,omitempty" validate:"omitempty,moovie_password"`
}

// Empty reports whether the update would change nothing.
func (p ProfileUpdate) Empty() bool {
	return p == ProfileUpdate{}
}

// CommentInput is the body of POST /api/movies/:id/comments.
type CommentInput struct {
	User   string `json:"user" validate:"required"`
	Text   string `json:"text" validate:"required"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
}

// NewCommentInput composes a comment body for author, trimming text.
func NewCommentInput(author *User, text string, rating int) CommentInput {
	return CommentInput{User: author.AuthorName(), Text: strings.TrimSpace(text), Rating: rating}
}
