package schema

import "time"

// User is a community platform account record
type User struct {
	ID              string     `mapstructure:"id" json:"id" validate:"required"`
	Email           string     `mapstructure:"email" json:"email" validate:"required,email"`
	HashedPassword  string     `mapstructure:"hashedPassword" json:"hashedPassword,omitempty"`
	Role            string     `mapstructure:"role" json:"role" validate:"omitempty,oneof=PARENT THERAPIST MODERATOR ADMIN"`
	EmailVerified   bool       `mapstructure:"emailVerified" json:"emailVerified"`
	EmailVerifiedAt *time.Time `mapstructure:"emailVerifiedAt" json:"emailVerifiedAt,omitempty"`
	CreatedAt       time.Time  `mapstructure:"createdAt" json:"createdAt" validate:"required"`
	UpdatedAt       time.Time  `mapstructure:"updatedAt" json:"updatedAt" validate:"required"`
	LastLoginAt     *time.Time `mapstructure:"lastLoginAt" json:"lastLoginAt,omitempty"`
	IsBanned        bool       `mapstructure:"isBanned" json:"isBanned"`
	BannedAt        *time.Time `mapstructure:"bannedAt" json:"bannedAt,omitempty"`
	BannedReason    string     `mapstructure:"bannedReason" json:"bannedReason,omitempty"`
}

// Post is a community forum post record
type Post struct {
	ID           string     `mapstructure:"id" json:"id" validate:"required"`
	Title        string     `mapstructure:"title" json:"title" validate:"required,min=1,max=255"`
	Content      string     `mapstructure:"content" json:"content" validate:"required"`
	AuthorID     string     `mapstructure:"authorId" json:"authorId,omitempty"`
	IsAnonymous  bool       `mapstructure:"isAnonymous" json:"isAnonymous"`
	CategoryID   string     `mapstructure:"categoryId" json:"categoryId" validate:"required"`
	Status       string     `mapstructure:"status" json:"status" validate:"omitempty,oneof=ACTIVE REMOVED LOCKED PINNED DRAFT"`
	ViewCount    int        `mapstructure:"viewCount" json:"viewCount" validate:"gte=0"`
	CommentCount int        `mapstructure:"commentCount" json:"commentCount" validate:"gte=0"`
	VoteScore    int        `mapstructure:"voteScore" json:"voteScore"`
	IsPinned     bool       `mapstructure:"isPinned" json:"isPinned"`
	IsLocked     bool       `mapstructure:"isLocked" json:"isLocked"`
	PinnedAt     *time.Time `mapstructure:"pinnedAt" json:"pinnedAt,omitempty"`
	CreatedAt    time.Time  `mapstructure:"createdAt" json:"createdAt" validate:"required"`
	UpdatedAt    time.Time  `mapstructure:"updatedAt" json:"updatedAt" validate:"required"`
}

// Comment is a community forum comment record
type Comment struct {
	ID              string    `mapstructure:"id" json:"id" validate:"required"`
	Content         string    `mapstructure:"content" json:"content" validate:"required"`
	AuthorID        string    `mapstructure:"authorId" json:"authorId" validate:"required"`
	PostID          string    `mapstructure:"postId" json:"postId" validate:"required"`
	ParentCommentID string    `mapstructure:"parentCommentId" json:"parentCommentId,omitempty"`
	Status          string    `mapstructure:"status" json:"status" validate:"omitempty,oneof=ACTIVE REMOVED HIDDEN"`
	IsAnonymous     bool      `mapstructure:"isAnonymous" json:"isAnonymous"`
	VoteScore       int       `mapstructure:"voteScore" json:"voteScore"`
	CreatedAt       time.Time `mapstructure:"createdAt" json:"createdAt" validate:"required"`
	UpdatedAt       time.Time `mapstructure:"updatedAt" json:"updatedAt" validate:"required"`
}
