package model

import "time"

// User represents a row in the `users` table. The username is the primary
// key and never changes; PasswordHash is the bcrypt digest and must never
// leave the identity layer. JSON tags are omitted because handlers define
// their own response types.
//
// Fields:
//  Username     – users.username (primary key)
//  PasswordHash – users.password_hash (bcrypt)
//  FirstName    – users.first_name
//  LastName     – users.last_name
//  Phone        – users.phone
//  JoinAt       – users.join_at (set once at registration)
//  LastLoginAt  – users.last_login_at (updated on each successful login)
type User struct {
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	JoinAt       time.Time
	LastLoginAt  time.Time
}

// Profile is the public subset of a user that may appear inside message
// payloads and profile lookups. It never carries the password hash.
type Profile struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

// Summary is the roster entry returned when listing all users.
type Summary struct {
	Username  string
	FirstName string
	LastName  string
}

// Profile returns the public view of the user.
func (u User) Profile() Profile {
	return Profile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}
