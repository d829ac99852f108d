package handlers

import (
	"time"

	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/models"
	"github.com/erendikmenn/erenailab-blog/internal/validation"
)

// CommentNode is a comment as returned by the public API.
type CommentNode struct {
	ID           int            `json:"id"`
	Content      string         `json:"content"`
	PostSlug     string         `json:"postSlug"`
	ParentID     *int           `json:"parentId"`
	Status       string         `json:"status"`
	User         models.Author  `json:"user"`
	LikeCount    int            `json:"likeCount"`
	DislikeCount int            `json:"dislikeCount"`
	UserReaction *string        `json:"userReaction,omitempty"`
	Replies      []*CommentNode `json:"replies"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

type reactionCounts struct {
	likes    int
	dislikes int
}

func newCommentNode(c models.Comment, counts reactionCounts) *CommentNode {
	return &CommentNode{
		ID:           c.ID,
		Content:      validation.SanitizeComment(c.Content),
		PostSlug:     c.PostSlug,
		ParentID:     c.ParentID,
		Status:       c.Status,
		User:         c.User.Author(),
		LikeCount:    counts.likes,
		DislikeCount: counts.dislikes,
		Replies:      []*CommentNode{},
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// buildCommentTree threads comments, which must be ordered newest first.
// Roots keep that order; replies are listed oldest first. A reply whose
// parent is not among comments is dropped.
func buildCommentTree(comments []models.Comment, counts map[int]reactionCounts, mine map[int]string) []*CommentNode {
	nodes := make(map[int]*CommentNode, len(comments))
	for _, c := range comments {
		node := newCommentNode(c, counts[c.ID])
		if t, ok := mine[c.ID]; ok {
			node.UserReaction = &t
		}
		nodes[c.ID] = node
	}

	// Walk oldest first so replies are appended in chronological order.
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		if c.ParentID == nil {
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, nodes[c.ID])
		}
	}

	roots := []*CommentNode{}
	for _, c := range comments {
		if c.ParentID == nil {
			roots = append(roots, nodes[c.ID])
		}
	}
	return roots
}

type reactionRow struct {
	CommentID int
	Type      string
	Total     int
}

type replyRow struct {
	ParentID int
	Total    int
}

// reactionCountsFor counts likes and dislikes per comment.
func reactionCountsFor(db *gorm.DB, ids []int) (map[int]reactionCounts, error) {
	out := make(map[int]reactionCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []reactionRow
	err := db.Model(&models.CommentLike{}).
		Select("comment_id, type, count(*) as total").
		Where("comment_id IN ?", ids).
		Group("comment_id, type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		rc := out[r.CommentID]
		switch r.Type {
		case models.ReactionLike:
			rc.likes = r.Total
		case models.ReactionDislike:
			rc.dislikes = r.Total
		}
		out[r.CommentID] = rc
	}
	return out, nil
}

// reactionsBy maps comment id to the reaction userID left on it.
func reactionsBy(db *gorm.DB, userID int, ids []int) (map[int]string, error) {
	out := map[int]string{}
	if len(ids) == 0 {
		return out, nil
	}

	var likes []models.CommentLike
	if err := db.Where("user_id = ? AND comment_id IN ?", userID, ids).Find(&likes).Error; err != nil {
		return nil, err
	}
	for _, l := range likes {
		out[l.CommentID] = l.Type
	}
	return out, nil
}

// replyCountsFor counts direct replies per comment.
func replyCountsFor(db *gorm.DB, ids []int) (map[int]int, error) {
	out := make(map[int]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []replyRow
	err := db.Model(&models.Comment{}).
		Select("parent_id, count(*) as total").
		Where("parent_id IN ?", ids).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ParentID] = r.Total
	}
	return out, nil
}

func commentIDs(comments []models.Comment) []int {
	ids := make([]int, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}
