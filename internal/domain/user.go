package domain

import (
	"slices"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// User is provisioned outside this service (auth service or devconnectctl).
// Followers and Following hold user ids and behave as sets.
type User struct {
	UserID         string    `json:"id" dynamodbav:"user_id" bson:"_id"`
	Name           string    `json:"name" dynamodbav:"name" bson:"name"`
	Email          string    `json:"email" dynamodbav:"email" bson:"email"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash" bson:"password_hash"`
	Bio            string    `json:"bio" dynamodbav:"bio" bson:"bio"`
	ProfilePicture string    `json:"profile_picture" dynamodbav:"profile_picture" bson:"profile_picture"`
	Gender         Gender    `json:"gender" dynamodbav:"gender" bson:"gender"`
	LinkedIn       string    `json:"linkedin" dynamodbav:"linkedin" bson:"linkedin"`
	GitHub         string    `json:"github" dynamodbav:"github" bson:"github"`
	Instagram      string    `json:"instagram" dynamodbav:"instagram" bson:"instagram"`
	Followers      []string  `json:"followers" dynamodbav:"followers,stringset,omitempty" bson:"followers"`
	Following      []string  `json:"following" dynamodbav:"following,stringset,omitempty" bson:"following"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at" bson:"updated_at"`
}

// UserSummary is the embedded author/partner view used in listings.
type UserSummary struct {
	UserID         string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture"`
}

// PublicUser is what other users see: no email, no credentials.
type PublicUser struct {
	UserID         string    `json:"id"`
	Name           string    `json:"name"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture"`
	Gender         Gender    `json:"gender"`
	LinkedIn       string    `json:"linkedin"`
	GitHub         string    `json:"github"`
	Instagram      string    `json:"instagram"`
	Followers      []string  `json:"followers"`
	Following      []string  `json:"following"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	CreatedAt      time.Time `json:"created"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{UserID: u.UserID, Name: u.Name, ProfilePicture: u.ProfilePicture}
}

func (u *User) Public() PublicUser {
	followers := u.Followers
	if followers == nil {
		followers = []string{}
	}
	following := u.Following
	if following == nil {
		following = []string{}
	}
	return PublicUser{
		UserID:         u.UserID,
		Name:           u.Name,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		Gender:         u.Gender,
		LinkedIn:       u.LinkedIn,
		GitHub:         u.GitHub,
		Instagram:      u.Instagram,
		Followers:      followers,
		Following:      following,
		FollowerCount:  len(followers),
		FollowingCount: len(following),
		CreatedAt:      u.CreatedAt,
	}
}

// IsFollowing reports whether u follows the user with the given id.
func (u *User) IsFollowing(userID string) bool {
	return slices.Contains(u.Following, userID)
}

// CreateUserRequest is consumed by the operator CLI.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Bio      string `json:"bio" validate:"max=500"`
	Gender   Gender `json:"gender" validate:"omitempty,oneof=Male Female Other"`
}

// Profile aggregates a user with the content they published.
type Profile struct {
	User      PublicUser `json:"user"`
	Posts     []Post     `json:"posts"`
	Resources []Resource `json:"resources"`
}
