package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erendikmenn/erenailab-blog/internal/notify"
	"github.com/erendikmenn/erenailab-blog/internal/validation"
)

type ContactHandler struct {
	notifier notify.Notifier
}

func NewContactHandler(n notify.Notifier) *ContactHandler {
	return &ContactHandler{notifier: n}
}

// Send accepts a contact form message and forwards it to the site owner.
func (h *ContactHandler) Send(c *gin.Context) {
	var input struct {
		Name    string `json:"name" binding:"required,notblank,min=2,max=100"`
		Email   string `json:"email" binding:"required,email,max=255"`
		Subject string `json:"subject" binding:"required,notblank,min=5,max=200"`
		Message string `json:"message" binding:"required,notblank,min=10,max=2000"`
	}
	if !bindJSON(c, &input) {
		return
	}

	name := validation.StripTags(input.Name)
	subject := validation.StripTags(input.Subject)
	message := validation.StripTags(input.Message)

	ctx := c.Request.Context()
	slog.InfoContext(ctx, "Contact form submission",
		"name", name,
		"email", input.Email,
		"subject", subject,
		"message_length", len(message),
	)

	notify.Async(ctx, h.notifier, "Contact: "+subject, fmt.Sprintf("%s <%s>: %s", name, input.Email, message))

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent successfully!"})
}
