package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"chitchat/store"
)

func (a *API) handleListUsers(c *gin.Context) {
	users, err := a.chat.Directory(caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (a *API) handleMe(c *gin.Context) {
	user, err := a.store.FindUserByID(caller(c))
	if errors.Is(err, store.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("me lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching user details"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	Name       string `json:"name"`
	ProfilePic string `json:"profilePic"`
}

func (a *API) handleUpdateUser(c *gin.Context) {
	// Accounts are only editable by their owner.
	id := c.Param("id")
	if id != caller(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot update another user"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := a.store.UpdateUser(id, req.Name, req.ProfilePic)
	if errors.Is(err, store.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("user update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating user details"})
		return
	}

	c.JSON(http.StatusOK, user)
}
