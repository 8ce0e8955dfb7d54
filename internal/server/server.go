package server

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"sociafy/internal/middleware"
	"sociafy/pkg/mailer"
	"sociafy/pkg/storage"

	adminHttp "sociafy/internal/modules/admin/delivery/http"

	attachmentHttp "sociafy/internal/modules/attachment/delivery/http"
	attachmentRepo "sociafy/internal/modules/attachment/repository"
	attachmentService "sociafy/internal/modules/attachment/service"

	chatHttp "sociafy/internal/modules/chat/delivery/http"
	chatRepo "sociafy/internal/modules/chat/repository"
	chatService "sociafy/internal/modules/chat/service"

	commentHttp "sociafy/internal/modules/comment/delivery/http"
	commentRepo "sociafy/internal/modules/comment/repository"
	commentService "sociafy/internal/modules/comment/service"

	friendHttp "sociafy/internal/modules/friends/delivery/http"
	friendRepo "sociafy/internal/modules/friends/repository"
	friendService "sociafy/internal/modules/friends/service"

	notiHttp "sociafy/internal/modules/notification/delivery/http"
	notifRepo "sociafy/internal/modules/notification/repository"
	notifService "sociafy/internal/modules/notification/service"

	postHttp "sociafy/internal/modules/post/delivery/http"
	postRepo "sociafy/internal/modules/post/repository"
	postService "sociafy/internal/modules/post/service"

	reactionHttp "sociafy/internal/modules/reaction/delivery/http"
	reactionRepo "sociafy/internal/modules/reaction/repository"
	reactionService "sociafy/internal/modules/reaction/service"

	searchHttp "sociafy/internal/modules/search/delivery/http"
	searchService "sociafy/internal/modules/search/service"

	userHttp "sociafy/internal/modules/user/delivery/http"
	userRepo "sociafy/internal/modules/user/repository"
	userService "sociafy/internal/modules/user/service"

	"sociafy/internal/entity"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	mediaStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	mail := mailer.NewMailer()

	meiliHost := os.Getenv("MEILISEARCH_HOST")
	if meiliHost == "" {
		meiliHost = "http://localhost:7700"
	}
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(os.Getenv("MEILI_MASTER_KEY")))
	searchSvc := searchService.NewSearchService(meiliClient)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	authSvc := userService.NewAuthService(users, mediaStorage, mail)
	authHandler := userHttp.NewAuthHandler(authSvc)

	attachments := attachmentRepo.NewAttachmentRepository(db)
	attachmentSvc := attachmentService.NewAttachmentService(attachments, mediaStorage)
	attachmentHandler := attachmentHttp.NewAttachmentHandler(attachmentSvc)

	notifications := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notifications, users, mail, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	friendships := friendRepo.NewFriendRepository(db)
	friendSvc := friendService.NewFriendService(friendships, users, notificationSvc)
	friendHandler := friendHttp.NewFriendHandler(friendSvc)

	posts := postRepo.NewPostRepository(db)
	comments := commentRepo.NewCommentRepository(db)

	reactions := reactionRepo.NewReactionRepository(db)
	reactionSvc := reactionService.NewReactionService(reactions, map[string]reactionService.SubjectSource{
		entity.ReactionRefPost:    posts,
		entity.ReactionRefComment: comments,
	}, friendships, notificationSvc, redisClient)
	reactionHandler := reactionHttp.NewReactionHandler(reactionSvc)

	commentSvc := commentService.NewCommentService(comments, attachments, users, posts, friendships, reactionSvc, reactionSvc, notificationSvc, mediaStorage, redisClient)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	postSvc := postService.NewPostService(posts, comments, attachments, users, commentSvc, reactionSvc, reactionSvc, notificationSvc, searchSvc, mediaStorage, redisClient)
	postHandler := postHttp.NewPostHandler(postSvc)

	chats := chatRepo.NewChatRepository(db)
	chatSvc := chatService.NewChatService(chats, users, friendships, redisClient)
	chatHandler := chatHttp.NewChatHandler(chatSvc, redisClient)

	adminHandler := adminHttp.NewAdminHandler(postSvc, commentSvc)

	// Background sweep for uploads that never got attached to anything.
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := attachmentSvc.CleanupOrphans(context.Background()); err != nil {
				log.Printf("orphan attachment cleanup failed: %v", err)
			}
		}
	}()

	router := gin.New()

	setupCORS(router)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware()

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/posts/deleted", adminHandler.ListDeletedPosts)
			adminGroup.DELETE("/posts/:post_id", adminHandler.HardDeletePost)
			adminGroup.DELETE("/comments/:comment_id", adminHandler.HardDeleteComment)
		}

		// User routes
		protected.GET("/users/me", authHandler.GetMe)
		protected.PUT("/users/me", authHandler.UpdateMe)
		protected.GET("/users/:user_id", authHandler.GetUser)
		protected.GET("/users/:user_id/posts", postHandler.ListByUser)

		// Post routes
		protected.POST("/posts", postHandler.Create)
		protected.GET("/posts/:post_id", postHandler.GetDetail)
		protected.PUT("/posts/:post_id", postHandler.Update)
		protected.DELETE("/posts/:post_id", postHandler.Delete)
		protected.POST("/posts/:post_id/restore", postHandler.Restore)

		// Comment routes
		protected.POST("/posts/:post_id/comments", commentHandler.Create)
		protected.GET("/posts/:post_id/comments", commentHandler.ListForPost)
		protected.GET("/comments/:comment_id", commentHandler.Get)
		protected.GET("/comments/:comment_id/replies", commentHandler.ListReplies)
		protected.PUT("/comments/:comment_id", commentHandler.Update)
		protected.DELETE("/comments/:comment_id", commentHandler.Delete)
		protected.POST("/comments/:comment_id/restore", commentHandler.Restore)

		// Reaction routes
		protected.POST("/posts/:post_id/reactions", reactionHandler.ApplyToPost)
		protected.GET("/posts/:post_id/reactions", reactionHandler.ListForPost)
		protected.POST("/comments/:comment_id/reactions", reactionHandler.ApplyToComment)
		protected.GET("/comments/:comment_id/reactions", reactionHandler.ListForComment)

		// Friend routes
		protected.GET("/friends", friendHandler.ListFriends)
		protected.GET("/friends/suggestions", friendHandler.Suggest)
		protected.DELETE("/friends/:user_id", friendHandler.Unfriend)
		protected.POST("/friends/requests", friendHandler.SendRequest)
		protected.GET("/friends/requests", friendHandler.ListRequests)
		protected.POST("/friends/requests/:request_id/accept", friendHandler.AcceptRequest)
		protected.POST("/friends/requests/:request_id/reject", friendHandler.RejectRequest)
		protected.DELETE("/friends/requests/:request_id", friendHandler.CancelRequest)
		protected.POST("/friends/blocks/:user_id", friendHandler.Block)
		protected.DELETE("/friends/blocks/:user_id", friendHandler.Unblock)
		protected.GET("/friends/blocks", friendHandler.ListBlocked)

		// Chat routes
		protected.POST("/chat/messages", chatHandler.SendMessage)
		protected.GET("/chat/conversations", chatHandler.ListConversations)
		protected.GET("/chat/conversations/:conversation_id/messages", chatHandler.ListMessages)
		protected.GET("/chat/ws", chatHandler.HandleWebSocket)

		// Notification routes
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:notification_id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Search routes
		protected.GET("/search/posts", searchHandler.SearchPosts)

		// Upload
		protected.POST("/upload", attachmentHandler.Upload)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine) {
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
