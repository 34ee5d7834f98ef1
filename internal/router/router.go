package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskhub/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Comment *apiHandler.CommentHandler
	Health  *apiHandler.HealthHandler
}

// FileRoots are the directories served under /media and /static. Empty roots are not mounted.
type FileRoots struct {
	Media  string
	Static string
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, files FileRoots) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	user := r.Group("/api/v1/user")
	user.POST("/register/", handlers.Auth.Register)
	user.POST("/login/", handlers.Auth.Login)
	user.POST("/activate/", handlers.Auth.Activate)
	user.POST("/forget-password/", handlers.Auth.ForgotPassword)
	user.POST("/reset_password/", handlers.Auth.ResetPassword)
	user.POST("/resend_code/", handlers.Auth.ResendCode)
	user.POST("/social_login/", handlers.Auth.SocialLogin)
	user.POST("/refresh/", handlers.Auth.Refresh)

	// Protected routes
	user.POST("/change_password/", authMiddleware(handlers.Auth.ChangePassword))
	user.POST("/logout/", authMiddleware(handlers.Auth.Logout))
	user.GET("/profile/", authMiddleware(handlers.Profile.GetProfile))
	user.PUT("/update_profile/", authMiddleware(handlers.Profile.UpdateProfile))

	tasks := r.Group("/api/v1/tasks")
	tasks.GET("/", authMiddleware(handlers.Task.ListTasks))
	tasks.POST("/", authMiddleware(handlers.Task.CreateTask))
	tasks.GET("/{id}/", authMiddleware(handlers.Task.GetTask))
	tasks.PUT("/{id}/", authMiddleware(handlers.Task.UpdateTask))
	tasks.DELETE("/{id}/", authMiddleware(handlers.Task.DeleteTask))
	tasks.POST("/{id}/comment/", authMiddleware(handlers.Comment.AddComment))
	tasks.PUT("/comment/{id}/update/", authMiddleware(handlers.Comment.UpdateComment))
	tasks.DELETE("/comment/{id}/delete/", authMiddleware(handlers.Comment.DeleteComment))
	tasks.POST("/comment/{id}/like/", authMiddleware(handlers.Comment.LikeComment))

	if files.Media != "" {
		r.ServeFiles("/media/{filepath:*}", files.Media)
	}
	if files.Static != "" {
		r.ServeFiles("/static/{filepath:*}", files.Static)
	}
	return r
}
