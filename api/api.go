// Package api exposes the HTTP surface: auth token issuance, the user
// directory, friend and chat routes, attachment upload, and the /ws
// push-channel upgrade. Handlers resolve the caller identity from the
// JWT and delegate everything else to the chat core.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"chitchat/chat"
	"chitchat/server"
	"chitchat/store"
)

type API struct {
	store     *store.Store
	chat      *chat.Service
	ws        *server.Server
	jwtSecret []byte
	uploadDir string
}

func New(st *store.Store, svc *chat.Service, ws *server.Server, jwtSecret, uploadDir string) *API {
	return &API{
		store:     st,
		chat:      svc,
		ws:        ws,
		jwtSecret: []byte(jwtSecret),
		uploadDir: uploadDir,
	}
}

func (a *API) Router(allowedOrigin string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if allowedOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{allowedOrigin}
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/signup", a.handleSignup)
			authGroup.POST("/login", a.handleLogin)
		}

		authed := apiGroup.Group("", a.authRequired())
		{
			usersGroup := authed.Group("/users")
			{
				usersGroup.GET("", a.handleListUsers)
				usersGroup.GET("/me", a.handleMe)
				usersGroup.PUT("/:id", a.handleUpdateUser)
			}

			friendsGroup := authed.Group("/friends")
			{
				friendsGroup.POST("/send-request/:id", a.handleSendRequest)
				friendsGroup.PUT("/update-request/:id", a.handleUpdateRequest)
				friendsGroup.GET("/requests", a.handlePendingRequests)
				friendsGroup.GET("/accepted-requests", a.handleAcceptedRequests)
				friendsGroup.GET("/last-messages", a.handleLastMessages)
			}

			chatGroup := authed.Group("/chat")
			{
				chatGroup.POST("/send", a.handleSendMessage)
				chatGroup.GET("/messages/:friendId", a.handleHistory)
				chatGroup.DELETE("/delete/:id", a.handleDeleteMessage)
			}

			authed.POST("/upload", a.handleUpload)
		}
	}

	router.Static("/files", a.uploadDir)
	router.GET("/ws", func(c *gin.Context) {
		a.ws.ServeWS(c.Writer, c.Request)
	})

	return router
}

// respondError maps the core error taxonomy to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var storageErr *chat.StorageError
	switch {
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, chat.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
	case errors.Is(err, chat.ErrAlreadyRequested):
		c.JSON(http.StatusBadRequest, gin.H{"error": "friend request already sent"})
	case errors.As(err, &storageErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
