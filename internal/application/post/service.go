package post

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/devconnect-api/internal/application/notification"
	"github.com/devconnect-api/internal/domain"
	"github.com/devconnect-api/internal/pkg/id"
	"github.com/devconnect-api/internal/pkg/upload"
)

const (
	maxContentLen = 5000
	maxCommentLen = 1000
	defaultLimit  = 20
	maxLimit      = 100
	// saveAttempts bounds optimistic retries when concurrent writers race.
	saveAttempts = 3
)

type Service interface {
	Create(ctx context.Context, in CreateInput) (*domain.Post, error)
	Feed(ctx context.Context, limit int, cursor string) (*domain.FeedPage, error)
	Get(ctx context.Context, postID string) (*domain.Post, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Post, error)
	Edit(ctx context.Context, actorID, postID string, in EditInput) (*domain.Post, error)
	Delete(ctx context.Context, actorID, postID string) error
	ImageURL(ctx context.Context, postID string) (string, error)
	ToggleLike(ctx context.Context, actorID, postID string) (*LikeResult, error)
	AddComment(ctx context.Context, actorID, postID, text string) (*domain.Comment, error)
	Comments(ctx context.Context, postID string) ([]domain.Comment, error)
	AddReply(ctx context.Context, actorID, postID, commentID, text string) (*domain.Reply, error)
	DeleteComment(ctx context.Context, actorID, postID, commentID string) (*domain.Post, error)
	DeleteReply(ctx context.Context, actorID, postID, commentID, replyID string) (*domain.Post, error)
}

type CreateInput struct {
	UserID  string
	Content string
	Image   *domain.FileUpload
}

type EditInput struct {
	Content *string
	Image   *domain.FileUpload
}

type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

type postStore interface {
	Create(ctx context.Context, p *domain.Post) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	Save(ctx context.Context, p *domain.Post) error
	Delete(ctx context.Context, postID string) error
	Feed(ctx context.Context, limit int, cursor string) ([]domain.Post, string, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Post, error)
}

type userStore interface {
	GetMany(ctx context.Context, ids []string) ([]domain.User, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) error
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}

type notifier interface {
	Notify(ctx context.Context, in notification.NotifyInput) (*domain.Notification, error)
}

type service struct {
	repo          postStore
	users         userStore
	objects       objectStore
	notifier      notifier
	log           *slog.Logger
	maxImageBytes int64
}

type ServiceDeps struct {
	PostRepo      postStore
	UserRepo      userStore
	ObjectStore   objectStore
	Notifier      notifier
	Logger        *slog.Logger
	MaxImageBytes int64
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &service{
		repo:          deps.PostRepo,
		users:         deps.UserRepo,
		objects:       deps.ObjectStore,
		notifier:      deps.Notifier,
		log:           log,
		maxImageBytes: deps.MaxImageBytes,
	}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*domain.Post, error) {
	content, err := cleanText(in.Content, "content", maxContentLen)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Post{
		PostID:    id.New(),
		UserID:    in.UserID,
		Content:   content,
		Likes:     []string{},
		Comments:  []domain.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Image != nil {
		if p.ImageKey, err = s.storeImage(ctx, in.UserID, p.PostID, in.Image); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.dropObject(ctx, p.ImageKey)
		return nil, err
	}
	if err := s.attachAuthors(ctx, p); err != nil {
		s.log.Warn("post: attach author", "post_id", p.PostID, "error", err)
	}
	return p, nil
}

func (s *service) Feed(ctx context.Context, limit int, cursor string) (*domain.FeedPage, error) {
	if limit < 1 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	posts, next, err := s.repo.Feed(ctx, limit, cursor)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	ptrs := make([]*domain.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	if err := s.attachAuthors(ctx, ptrs...); err != nil {
		return nil, err
	}
	return &domain.FeedPage{Posts: posts, NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, postID string) (*domain.Post, error) {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.attachAuthors(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	posts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

func (s *service) Edit(ctx context.Context, actorID, postID string, in EditInput) (*domain.Post, error) {
	if in.Content == nil && in.Image == nil {
		return nil, fmt.Errorf("nothing to update: %w", domain.ErrBadRequest)
	}
	var content string
	if in.Content != nil {
		var err error
		if content, err = cleanText(*in.Content, "content", maxContentLen); err != nil {
			return nil, err
		}
	}
	// Check ownership before touching object storage.
	current, err := s.repo.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if current.UserID != actorID {
		return nil, fmt.Errorf("only the author can edit a post: %w", domain.ErrForbidden)
	}
	var newKey string
	if in.Image != nil {
		if newKey, err = s.storeImage(ctx, actorID, id.New(), in.Image); err != nil {
			return nil, err
		}
	}

	var oldKey string
	p, err := s.mutate(ctx, postID, func(p *domain.Post) error {
		if p.UserID != actorID {
			return fmt.Errorf("only the author can edit a post: %w", domain.ErrForbidden)
		}
		if in.Content != nil {
			p.Content = content
		}
		if newKey != "" {
			oldKey = p.ImageKey
			p.ImageKey = newKey
		}
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		s.dropObject(ctx, newKey)
		return nil, err
	}
	s.dropObject(ctx, oldKey)
	if err := s.attachAuthors(ctx, p); err != nil {
		s.log.Warn("post: attach authors", "post_id", p.PostID, "error", err)
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, actorID, postID string) error {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return err
	}
	if p.UserID != actorID {
		return fmt.Errorf("only the author can delete a post: %w", domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, postID); err != nil {
		return err
	}
	s.dropObject(ctx, p.ImageKey)
	return nil
}

func (s *service) ImageURL(ctx context.Context, postID string) (string, error) {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return "", err
	}
	if p.ImageKey == "" {
		return "", fmt.Errorf("post has no image: %w", domain.ErrNotFound)
	}
	return s.objects.PresignedURL(ctx, p.ImageKey)
}

// ToggleLike likes the post on the first call and unlikes it on the next.
// Only a new like notifies the owner.
func (s *service) ToggleLike(ctx context.Context, actorID, postID string) (*LikeResult, error) {
	var liked bool
	p, err := s.mutate(ctx, postID, func(p *domain.Post) error {
		liked = p.ToggleLike(actorID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if liked {
		s.notify(ctx, notification.NotifyInput{
			RecipientID: p.UserID, SenderID: actorID, Type: domain.NotificationLike, PostID: p.PostID,
		})
	}
	return &LikeResult{Liked: liked, LikeCount: p.LikeCount}, nil
}

func (s *service) AddComment(ctx context.Context, actorID, postID, text string) (*domain.Comment, error) {
	text, err := cleanText(text, "text", maxCommentLen)
	if err != nil {
		return nil, err
	}
	c := domain.Comment{
		CommentID: id.New(),
		UserID:    actorID,
		Text:      text,
		Replies:   []domain.Reply{},
		CreatedAt: time.Now().UTC(),
	}
	p, err := s.mutate(ctx, postID, func(p *domain.Post) error {
		p.AddComment(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notification.NotifyInput{
		RecipientID: p.UserID, SenderID: actorID, Type: domain.NotificationComment, PostID: p.PostID,
	})
	if err := s.attachAuthors(ctx, p); err != nil {
		s.log.Warn("post: attach authors", "post_id", p.PostID, "error", err)
	}
	return p.Comment(c.CommentID), nil
}

func (s *service) Comments(ctx context.Context, postID string) ([]domain.Comment, error) {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.Comments == nil {
		return []domain.Comment{}, nil
	}
	return p.Comments, nil
}

// AddReply attaches a reply to a top-level comment and notifies the
// comment's author.
func (s *service) AddReply(ctx context.Context, actorID, postID, commentID, text string) (*domain.Reply, error) {
	text, err := cleanText(text, "text", maxCommentLen)
	if err != nil {
		return nil, err
	}
	r := domain.Reply{
		ReplyID:   id.New(),
		UserID:    actorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	var commentAuthor string
	p, err := s.mutate(ctx, postID, func(p *domain.Post) error {
		c := p.Comment(commentID)
		if c == nil {
			return fmt.Errorf("comment: %w", domain.ErrNotFound)
		}
		commentAuthor = c.UserID
		p.AddReply(commentID, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notification.NotifyInput{
		RecipientID: commentAuthor, SenderID: actorID, Type: domain.NotificationComment, PostID: p.PostID,
	})
	if err := s.attachAuthors(ctx, p); err != nil {
		s.log.Warn("post: attach authors", "post_id", p.PostID, "error", err)
	}
	return p.Comment(commentID).Reply(r.ReplyID), nil
}

// DeleteComment removes the comment and its replies in a single save.
func (s *service) DeleteComment(ctx context.Context, actorID, postID, commentID string) (*domain.Post, error) {
	return s.mutate(ctx, postID, func(p *domain.Post) error {
		c := p.Comment(commentID)
		if c == nil {
			return fmt.Errorf("comment: %w", domain.ErrNotFound)
		}
		if c.UserID != actorID {
			return fmt.Errorf("only the author can delete a comment: %w", domain.ErrForbidden)
		}
		p.RemoveComment(commentID)
		return nil
	})
}

func (s *service) DeleteReply(ctx context.Context, actorID, postID, commentID, replyID string) (*domain.Post, error) {
	return s.mutate(ctx, postID, func(p *domain.Post) error {
		c := p.Comment(commentID)
		if c == nil {
			return fmt.Errorf("comment: %w", domain.ErrNotFound)
		}
		r := c.Reply(replyID)
		if r == nil {
			return fmt.Errorf("reply: %w", domain.ErrNotFound)
		}
		if r.UserID != actorID {
			return fmt.Errorf("only the author can delete a reply: %w", domain.ErrForbidden)
		}
		p.RemoveReply(commentID, replyID)
		return nil
	})
}

// mutate applies fn to a fresh copy of the post and saves it, retrying when
// another writer got there first. An error from fn aborts without saving.
func (s *service) mutate(ctx context.Context, postID string, fn func(*domain.Post) error) (*domain.Post, error) {
	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		p, err := s.repo.Get(ctx, postID)
		if err != nil {
			return nil, err
		}
		if err := fn(p); err != nil {
			return nil, err
		}
		err = s.repo.Save(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *service) storeImage(ctx context.Context, ownerID, objectID string, f *domain.FileUpload) (string, error) {
	checked, err := upload.Sniff(f.Body, f.Size, s.maxImageBytes, upload.ImageTypes)
	if err != nil {
		return "", fmt.Errorf("image: %v: %w", err, domain.ErrBadRequest)
	}
	key := path.Join("posts", ownerID, objectID+checked.Extension)
	if err := s.objects.Upload(ctx, key, f.Body, checked.ContentType, f.Size); err != nil {
		return "", err
	}
	return key, nil
}

func (s *service) dropObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		s.log.Warn("post: delete object", "key", key, "error", err)
	}
}

func (s *service) notify(ctx context.Context, in notification.NotifyInput) {
	if _, err := s.notifier.Notify(ctx, in); err != nil {
		s.log.Warn("post: notify", "type", in.Type, "recipient", in.RecipientID, "error", err)
	}
}

// attachAuthors fills author summaries on posts, comments and replies.
func (s *service) attachAuthors(ctx context.Context, posts ...*domain.Post) error {
	var ids []string
	for _, p := range posts {
		ids = append(ids, p.UserIDs()...)
	}
	if len(ids) == 0 {
		return nil
	}
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]*domain.UserSummary, len(users))
	for i := range users {
		sum := users[i].Summary()
		byID[sum.UserID] = &sum
	}
	for _, p := range posts {
		p.Author = byID[p.UserID]
		for i := range p.Comments {
			c := &p.Comments[i]
			c.Author = byID[c.UserID]
			for j := range c.Replies {
				c.Replies[j].Author = byID[c.Replies[j].UserID]
			}
		}
	}
	return nil
}

func cleanText(s, field string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is required: %w", field, domain.ErrBadRequest)
	}
	if utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("%s exceeds %d characters: %w", field, max, domain.ErrBadRequest)
	}
	return s, nil
}
