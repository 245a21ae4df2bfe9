package domain

import (
	"slices"
	"time"
)

// Post embeds its comments; comments embed their replies. LikeCount,
// CommentCount and ReplyCount are derived by Recount and never set by hand.
type Post struct {
	PostID       string    `json:"id" dynamodbav:"post_id" bson:"_id"`
	UserID       string    `json:"user_id" dynamodbav:"user_id" bson:"user_id"`
	Content      string    `json:"content" dynamodbav:"content" bson:"content"`
	ImageKey     string    `json:"image_key,omitempty" dynamodbav:"image_key,omitempty" bson:"image_key,omitempty"`
	Likes        []string  `json:"likes" dynamodbav:"likes,stringset,omitempty" bson:"likes"`
	LikeCount    int       `json:"like_count" dynamodbav:"like_count" bson:"like_count"`
	Comments     []Comment `json:"comments" dynamodbav:"comments" bson:"comments"`
	CommentCount int       `json:"comment_count" dynamodbav:"comment_count" bson:"comment_count"`
	Version      int       `json:"-" dynamodbav:"version" bson:"version"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at" bson:"updated_at"`

	Author *UserSummary `json:"author,omitempty" dynamodbav:"-" bson:"-"`
}

type Comment struct {
	CommentID  string    `json:"id" dynamodbav:"comment_id" bson:"comment_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id" bson:"user_id"`
	Text       string    `json:"text" dynamodbav:"text" bson:"text"`
	Replies    []Reply   `json:"replies" dynamodbav:"replies" bson:"replies"`
	ReplyCount int       `json:"reply_count" dynamodbav:"reply_count" bson:"reply_count"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at" bson:"created_at"`

	Author *UserSummary `json:"author,omitempty" dynamodbav:"-" bson:"-"`
}

type Reply struct {
	ReplyID   string    `json:"id" dynamodbav:"reply_id" bson:"reply_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id" bson:"user_id"`
	Text      string    `json:"text" dynamodbav:"text" bson:"text"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at" bson:"created_at"`

	Author *UserSummary `json:"author,omitempty" dynamodbav:"-" bson:"-"`
}

// Recount derives every counter from the embedded collections.
// Replies count toward CommentCount.
func (p *Post) Recount() {
	p.LikeCount = len(p.Likes)
	total := 0
	for i := range p.Comments {
		p.Comments[i].ReplyCount = len(p.Comments[i].Replies)
		total += 1 + p.Comments[i].ReplyCount
	}
	p.CommentCount = total
}

func (p *Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// ToggleLike adds userID to the like set or removes it when present.
// It returns true when the post is liked after the call.
func (p *Post) ToggleLike(userID string) bool {
	defer p.Recount()
	if i := slices.Index(p.Likes, userID); i >= 0 {
		p.Likes = slices.Delete(p.Likes, i, i+1)
		return false
	}
	p.Likes = append(p.Likes, userID)
	return true
}

func (p *Post) Comment(commentID string) *Comment {
	for i := range p.Comments {
		if p.Comments[i].CommentID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}

func (p *Post) AddComment(c Comment) {
	p.Comments = append(p.Comments, c)
	p.Recount()
}

// RemoveComment drops the comment together with all of its replies.
func (p *Post) RemoveComment(commentID string) bool {
	n := len(p.Comments)
	p.Comments = slices.DeleteFunc(p.Comments, func(c Comment) bool { return c.CommentID == commentID })
	p.Recount()
	return len(p.Comments) != n
}

func (p *Post) AddReply(commentID string, r Reply) bool {
	c := p.Comment(commentID)
	if c == nil {
		return false
	}
	c.Replies = append(c.Replies, r)
	p.Recount()
	return true
}

func (c *Comment) Reply(replyID string) *Reply {
	for i := range c.Replies {
		if c.Replies[i].ReplyID == replyID {
			return &c.Replies[i]
		}
	}
	return nil
}

func (p *Post) RemoveReply(commentID, replyID string) bool {
	c := p.Comment(commentID)
	if c == nil {
		return false
	}
	n := len(c.Replies)
	c.Replies = slices.DeleteFunc(c.Replies, func(r Reply) bool { return r.ReplyID == replyID })
	p.Recount()
	return len(c.Replies) != n
}

// UserIDs returns every distinct user referenced by the post, its comments
// and replies.
func (p *Post) UserIDs() []string {
	seen := map[string]struct{}{p.UserID: {}}
	ids := []string{p.UserID}
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, c := range p.Comments {
		add(c.UserID)
		for _, r := range c.Replies {
			add(r.UserID)
		}
	}
	return ids
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

type EditPostRequest struct {
	Content *string `json:"content" validate:"omitempty,max=5000"`
}

// FeedPage is one page of the newest-first post listing.
type FeedPage struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"next_cursor,omitempty"`
}
