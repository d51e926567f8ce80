package api

import (
	"net/http"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/observability"
	"fitlog/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// SetupRoutes wires every handler into the gin engine. All routes except
// /ping, /metrics and the auth endpoints require a valid access token;
// catalog writes and the /admin group additionally require specific roles.
func SetupRoutes(
	router *gin.Engine,
	log *logrus.Logger,
	authService service.AuthService,
	userService service.UserService,
	exerciseService service.ExerciseService,
	workoutService service.WorkoutService,
	adminService service.AdminService,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	workoutHandler := NewWorkoutHandler(workoutService)
	adminHandler := NewAdminHandler(adminService)

	router.Use(RequestLogger(log))
	router.Use(observability.RequestMetrics())

	authMiddleware := AuthMiddleware(authService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authMiddleware, authHandler.Logout)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		userGroup := protected.Group("/users/me")
		{
			userGroup.GET("", userHandler.GetProfile)
			userGroup.PATCH("", userHandler.UpdateProfile)
			userGroup.PATCH("/password", userHandler.ChangePassword)
			userGroup.POST("/picture-upload", userHandler.GeneratePictureUploadURL)
		}

		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)

			// Catalog writes are restricted to admins; the catalog is shared
			// across all users.
			exerciseGroup.POST("", RoleMiddleware(domain.RoleAdmin), exerciseHandler.CreateExercise)
			exerciseGroup.PATCH("/:id", RoleMiddleware(domain.RoleAdmin), exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), exerciseHandler.DeleteExercise)
			exerciseGroup.POST("/:id/media-upload", RoleMiddleware(domain.RoleAdmin), exerciseHandler.GenerateMediaUploadURL)
		}

		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("", workoutHandler.CreateWorkout)
			workoutGroup.GET("", workoutHandler.ListWorkouts)
			workoutGroup.GET("/:id", workoutHandler.GetWorkout)
			workoutGroup.PATCH("/:id", workoutHandler.UpdateWorkout)
			workoutGroup.DELETE("/:id", workoutHandler.DeleteWorkout)
			workoutGroup.PATCH("/:id/complete", workoutHandler.CompleteWorkout)
			workoutGroup.PATCH("/:id/reopen", workoutHandler.ReopenWorkout)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/:id", adminHandler.GetUser)
			adminGroup.PATCH("/users/:id", adminHandler.UpdateUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.GET("/stats", adminHandler.GetDashboardStats)
		}
	}
}
