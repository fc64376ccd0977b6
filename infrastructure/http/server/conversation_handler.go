package server

import (
	"dm-lab/domain"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (r *Router) listConversations(c *gin.Context) {
	views, err := r.conversations.ListConversations(identity(c).UserID)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

func (r *Router) listMessages(c *gin.Context) {
	views, err := r.conversations.ListMessages(c.Param("id"), identity(c).UserID)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

func (r *Router) sendMessage(c *gin.Context) {
	var body sendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		r.writeError(c, bindingError(err))
		return
	}
	view, err := r.conversations.SendMessage(c.Request.Context(), domain.SendMessageCommand{
		ConversationID: c.Param("id"),
		SenderID:       identity(c).UserID,
		Content:        body.Content,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": view})
}

func (r *Router) markRead(c *gin.Context) {
	updated, err := r.conversations.MarkRead(c.Request.Context(), c.Param("id"), identity(c).UserID)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (r *Router) searchMessages(c *gin.Context) {
	var query searchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		r.writeError(c, bindingError(err))
		return
	}
	views, err := r.conversations.SearchMessages(domain.SearchMessagesCommand{
		ConversationID: c.Param("id"),
		RequesterID:    identity(c).UserID,
		Query:          query.Query,
		Limit:          query.Limit,
	})
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}
