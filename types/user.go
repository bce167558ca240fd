package types

import (
	"regexp"
	"strings"
	"time"

	"github.com/immoalbania/immo/validator"
)

var reUsername = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,20}$`)

type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	AvatarURL *string   `db:"avatar_url" json:"avatarUrl"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Login struct {
	Username string
}

func (in *Login) Validate() error {
	v := validator.New()

	in.Username = strings.TrimSpace(in.Username)

	if in.Username == "" {
		v.AddError("Username", "Username is required")
	}
	if !reUsername.MatchString(in.Username) {
		v.AddError("Username", "Username is invalid")
	}

	return v.AsError()
}

type AuthOutput struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
