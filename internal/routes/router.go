package routes

import (
	"github.com/gin-gonic/gin"

	"todoshare/internal/controller"
	"todoshare/internal/middleware"
	"todoshare/pkg/models"
)

// Settings are the router's access credentials.
type Settings struct {
	APIKey    string
	JWTSecret string
}

func Router(h *controller.Handler, s Settings) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestID())

	// Health for load balancers and K8s probes
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)

	// Protected: API key and JWT required
	api := router.Group("")
	api.Use(middleware.APIKey(s.APIKey), middleware.AuthMiddleware(s.JWTSecret))
	{
		api.POST("/auth/session", h.SignIn)
		api.DELETE("/auth/session", h.SignOut)
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.UpdateProfile)
		api.GET("/users/search", h.SearchUsers)
		api.GET("/realtime/:table", h.Stream)

		for _, table := range []string{models.TableTasks, models.TableNotes} {
			res := h.Resource(table)
			g := api.Group("/" + table)
			g.GET("", res.List)
			g.POST("", res.Create)
			g.PATCH("/:id", res.Update)
			g.DELETE("/:id", res.Delete)
			g.PUT("/:id/share", res.Share)
		}
	}

	return router
}
