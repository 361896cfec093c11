package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) handleSendRequest(c *gin.Context) {
	if err := a.chat.SendFriendRequest(caller(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend request sent successfully."})
}

type updateRequestBody struct {
	Status string `json:"status" binding:"required"`
}

func (a *API) handleUpdateRequest(c *gin.Context) {
	var req updateRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	if err := a.chat.RespondToRequest(caller(c), c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend request " + req.Status + " successfully."})
}

func (a *API) handlePendingRequests(c *gin.Context) {
	infos, err := a.chat.ListPending(caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (a *API) handleAcceptedRequests(c *gin.Context) {
	infos, err := a.chat.ListAccepted(caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (a *API) handleLastMessages(c *gin.Context) {
	summaries, err := a.chat.LastMessagePerFriend(caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}
