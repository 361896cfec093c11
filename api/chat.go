package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	ReceiverID     string `json:"receiverId" binding:"required"`
	Text           string `json:"text"`
	FileURL        string `json:"fileURL"`
	AttachmentNote string `json:"attachmentNote"`
}

func (a *API) handleSendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId is required"})
		return
	}

	msg, err := a.chat.SendMessage(caller(c), req.ReceiverID, req.Text, req.FileURL, req.AttachmentNote)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

func (a *API) handleHistory(c *gin.Context) {
	messages, err := a.chat.History(caller(c), c.Param("friendId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (a *API) handleDeleteMessage(c *gin.Context) {
	if err := a.chat.DeleteMessage(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}
