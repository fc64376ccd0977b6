package server

import (
	"dm-lab/domain"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (r *Router) createRequest(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		r.writeError(c, bindingError(err))
		return
	}
	view, err := r.requests.CreateRequest(c.Request.Context(), domain.CreateRequestCommand{
		SenderID:   identity(c).UserID,
		ReceiverID: body.ReceiverID,
		Content:    body.Content,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": view})
}

func (r *Router) listRequests(c *gin.Context) {
	views, err := r.requests.ListPendingForReceiver(identity(c).UserID)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": views})
}

func (r *Router) checkRequest(c *gin.Context) {
	check, err := r.requests.CheckStatus(identity(c).UserID, c.Param("receiverId"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (r *Router) respondToRequest(c *gin.Context) {
	var body respondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		r.writeError(c, bindingError(err))
		return
	}
	action, err := domain.ParseAction(body.Action)
	if err != nil {
		r.writeError(c, err)
		return
	}
	resolution, err := r.requests.RespondToRequest(c.Request.Context(), domain.RespondToRequestCommand{
		RequestID:   c.Param("id"),
		ResponderID: identity(c).UserID,
		Action:      action,
		RespondedAt: time.Now().UTC(),
	})
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolution)
}
