package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/erendikmenn/erenailab-blog/internal/apperrors"
	"github.com/erendikmenn/erenailab-blog/internal/models"
)

type adminUser struct {
	models.User
	CommentCount int64 `json:"commentCount"`
	LikeCount    int64 `json:"likeCount"`
}

type roleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// ListUsers returns users with their activity counts and role statistics.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q struct {
		pageQuery
		Role     string `form:"role" binding:"omitempty,oneof=USER ADMIN MODERATOR EDITOR"`
		IsActive string `form:"isActive" binding:"omitempty,oneof=true false"`
		Search   string `form:"search" binding:"max=100"`
	}
	if !bindQuery(c, &q) {
		return
	}
	limit := q.limit(50)

	db := h.db.WithContext(c.Request.Context())
	query := db.Model(&models.User{})
	if q.Role != "" {
		query = query.Where("role = ?", q.Role)
	}
	if q.IsActive != "" {
		query = query.Where("is_active = ?", q.IsActive == "true")
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch users", err))
		return
	}

	var users []models.User
	err := query.Session(&gorm.Session{}).
		Order("created_at desc, id desc").
		Offset(q.offset(50)).Limit(limit).
		Find(&users).Error
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch users", err))
		return
	}

	out := make([]adminUser, len(users))
	for i, u := range users {
		out[i] = adminUser{User: u}
	}
	if err := userCounts(db, out); err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch users", err))
		return
	}

	roles := []roleCount{}
	if err := db.Model(&models.User{}).Select("role, count(*) as count").Group("role").Order("role").Scan(&roles).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch users", err))
		return
	}
	var active int64
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch users", err))
		return
	}
	var all int64
	for _, r := range roles {
		all += r.Count
	}

	respond(c, http.StatusOK, gin.H{
		"users":      out,
		"pagination": newPagination(q.Page, limit, total),
		"stats": gin.H{
			"roleDistribution": roles,
			"activeUsers":      active,
			"inactiveUsers":    all - active,
		},
	}, "")
}

type userCountRow struct {
	UserID int
	Total  int64
}

// userCounts fills the comment and like counts of users with one grouped
// query per table.
func userCounts(db *gorm.DB, users []adminUser) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	countBy := func(model any) (map[int]int64, error) {
		var rows []userCountRow
		err := db.Model(model).
			Select("user_id, count(*) as total").
			Where("user_id IN ?", ids).
			Group("user_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		out := make(map[int]int64, len(rows))
		for _, r := range rows {
			out[r.UserID] = r.Total
		}
		return out, nil
	}

	comments, err := countBy(&models.Comment{})
	if err != nil {
		return err
	}
	likes, err := countBy(&models.CommentLike{})
	if err != nil {
		return err
	}
	for i := range users {
		users[i].CommentCount = comments[users[i].ID]
		users[i].LikeCount = likes[users[i].ID]
	}
	return nil
}

func (h *AdminHandler) loadUser(c *gin.Context) (*models.User, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("User not found"))
			return nil, false
		}
		apperrors.Respond(c, apperrors.Internal("Failed to load user", err))
		return nil, false
	}
	return &user, true
}

// GetUser returns one user with counts and their latest comments.
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())
	counted := []adminUser{{User: *user}}
	if err := userCounts(db, counted); err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch user", err))
		return
	}
	out := counted[0]

	recent := []models.Comment{}
	if err := db.Where("user_id = ?", user.ID).Order("created_at desc, id desc").Limit(10).Find(&recent).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to fetch user", err))
		return
	}

	respond(c, http.StatusOK, gin.H{"user": out, "recentComments": recent}, "")
}

type userUpdate struct {
	Role     *string `json:"role" binding:"omitempty,oneof=USER ADMIN MODERATOR EDITOR"`
	IsActive *bool   `json:"isActive"`
	Reason   string  `json:"reason" binding:"max=500"`
}

// UpdateUser changes a user's role and/or active flag.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var input userUpdate
	if !bindJSON(c, &input) {
		return
	}
	h.applyUserUpdate(c, input)
}

// SetUserRole is a shortcut for UpdateUser with only a role.
func (h *AdminHandler) SetUserRole(c *gin.Context) {
	var input struct {
		Role   string `json:"role" binding:"required,oneof=USER ADMIN MODERATOR EDITOR"`
		Reason string `json:"reason" binding:"max=500"`
	}
	if !bindJSON(c, &input) {
		return
	}
	h.applyUserUpdate(c, userUpdate{Role: &input.Role, Reason: input.Reason})
}

// SetUserStatus is a shortcut for UpdateUser with only the active flag.
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	var input struct {
		IsActive *bool  `json:"isActive" binding:"required"`
		Reason   string `json:"reason" binding:"max=500"`
	}
	if !bindJSON(c, &input) {
		return
	}
	h.applyUserUpdate(c, userUpdate{IsActive: input.IsActive, Reason: input.Reason})
}

func (h *AdminHandler) applyUserUpdate(c *gin.Context, input userUpdate) {
	actor := currentUser(c)

	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	updates := map[string]any{}
	var changes []string
	if input.Role != nil && *input.Role != user.Role {
		if user.ID == actor.ID && *input.Role != models.RoleAdmin {
			apperrors.Respond(c, apperrors.Validation("You cannot remove your own admin role"))
			return
		}
		updates["role"] = *input.Role
		changes = append(changes, fmt.Sprintf("role: %s → %s", user.Role, *input.Role))
	}
	if input.IsActive != nil && *input.IsActive != user.IsActive {
		if user.ID == actor.ID && !*input.IsActive {
			apperrors.Respond(c, apperrors.Validation("You cannot deactivate your own account"))
			return
		}
		updates["is_active"] = *input.IsActive
		changes = append(changes, fmt.Sprintf("isActive: %t → %t", user.IsActive, *input.IsActive))
	}
	if len(updates) == 0 {
		apperrors.Respond(c, apperrors.Validation("No changes requested"))
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Updates(updates).Error; err != nil {
			return err
		}
		return recordAdminAction(tx, c, actor, "user_updated", models.TargetUser, user.ID, map[string]any{
			"targetEmail": user.Email,
			"changes":     strings.Join(changes, ", "),
			"reason":      input.Reason,
		})
	})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to update user", err))
		return
	}

	if role, ok := updates["role"].(string); ok {
		user.Role = role
	}
	if active, ok := updates["is_active"].(bool); ok {
		user.IsActive = active
	}
	respond(c, http.StatusOK, user, "User updated")
}

var errUserHasComments = errors.New("user has comments")

// DeleteUser removes a user who never commented.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor := currentUser(c)

	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	if user.ID == actor.ID {
		apperrors.Respond(c, apperrors.Validation("You cannot delete your own account"))
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var comments int64
		if err := tx.Model(&models.Comment{}).Where("user_id = ?", user.ID).Count(&comments).Error; err != nil {
			return err
		}
		if comments > 0 {
			return errUserHasComments
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.AdminLog{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.User{}, user.ID).Error; err != nil {
			return err
		}
		return recordAdminAction(tx, c, actor, "user_deleted", models.TargetUser, user.ID, map[string]any{
			"targetEmail": user.Email,
			"targetName":  user.Name,
		})
	})
	if errors.Is(err, errUserHasComments) {
		apperrors.Respond(c, apperrors.Validation("User has comments. Deactivate instead."))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("Failed to delete user", err))
		return
	}

	respond(c, http.StatusOK, nil, "User deleted")
}
