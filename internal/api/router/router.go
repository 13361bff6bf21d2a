package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/config"
	"github.com/AcMongue/gestion-pfe-sub000/internal/api/handler"
	"github.com/AcMongue/gestion-pfe-sub000/internal/api/middleware"
	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/jwt"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/redis"
)

const (
	jsonBodyLimit   = 1 << 20
	uploadBodyLimit = 6 << 20

	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

var (
	admin   = model.RoleAdmin
	teacher = model.RoleTeacher
	student = model.RoleStudent
)

// Setup builds the gin engine. rdb may be nil: rate limiting and token
// revocation are then disabled.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	trans, err := dto.RegisterValidators(v)
	if err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	handler.UseTranslator(trans)

	var blacklist middleware.Blacklist
	if rdb != nil {
		blacklist = rdb
	}

	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// multipart upload, registered before the JSON body limit applies
	v1.POST("/users/import",
		middleware.BodyLimit(uploadBodyLimit),
		middleware.JWTAuth(jwtMgr, blacklist),
		middleware.RoleAuth(admin),
		h.User.ImportUsers,
	)

	api := v1.Group("", middleware.BodyLimit(jsonBodyLimit))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, loginRateLimit, loginRateWindow), h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		authorized := api.Group("", middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			departments := authorized.Group("/departments")
			{
				departments.GET("", h.Department.ListDepartments)
				departments.GET("/:id", h.Department.GetDepartment)
				departments.POST("", middleware.RoleAuth(admin), h.Department.CreateDepartment)
				departments.PUT("/:id", middleware.RoleAuth(admin), h.Department.UpdateDepartment)
				departments.DELETE("/:id", middleware.RoleAuth(admin), h.Department.DeleteDepartment)
			}

			users := authorized.Group("/users")
			{
				users.GET("/teachers", h.User.ListTeachers)
				users.GET("", middleware.RoleAuth(admin), h.User.ListUsers)
				users.POST("", middleware.RoleAuth(admin), h.User.CreateUser)
				users.GET("/:id", middleware.RoleAuth(admin, teacher), h.User.GetUser)
			}

			subjects := authorized.Group("/subjects")
			{
				subjects.GET("", h.Project.ListSubjects)
				subjects.POST("", middleware.RoleAuth(admin), h.Project.CreateSubject)
			}

			projects := authorized.Group("/projects")
			{
				projects.GET("", h.Project.ListProjects)
				projects.GET("/:id", h.Project.GetProject)
				projects.POST("", middleware.RoleAuth(admin), h.Project.CreateProject)
			}

			rooms := authorized.Group("/rooms")
			{
				rooms.GET("", h.Room.ListRooms)
				rooms.GET("/:id", h.Room.GetRoom)
				rooms.GET("/:id/availability", h.Room.Availability)
				rooms.POST("", middleware.RoleAuth(admin), h.Room.CreateRoom)
				rooms.PUT("/:id", middleware.RoleAuth(admin), h.Room.UpdateRoom)
				rooms.DELETE("/:id", middleware.RoleAuth(admin), h.Room.DeleteRoom)
			}

			defenses := authorized.Group("/defenses")
			{
				defenses.GET("", h.Defense.List)
				defenses.GET("/:id", h.Defense.Get)
				defenses.POST("", middleware.RoleAuth(admin), h.Defense.Schedule)
				defenses.PUT("/:id/reschedule", middleware.RoleAuth(admin), h.Defense.Reschedule)
				defenses.POST("/:id/cancel", middleware.RoleAuth(admin), h.Defense.Cancel)
				defenses.POST("/:id/start", middleware.RoleAuth(admin), h.Defense.Start)
				defenses.GET("/:id/composition", h.Defense.Composition)
				defenses.GET("/:id/grades", h.Defense.Grades)

				defenses.GET("/:id/jury", h.Jury.List)
				defenses.POST("/:id/jury", middleware.RoleAuth(admin), h.Jury.Add)
				defenses.PUT("/:id/jury/grade", middleware.RoleAuth(teacher), h.Jury.SubmitGrade)
				defenses.PUT("/:id/jury/:memberId", middleware.RoleAuth(admin), h.Jury.UpdateRole)
				defenses.DELETE("/:id/jury/:memberId", middleware.RoleAuth(admin), h.Jury.Remove)

				defenses.GET("/:id/change-requests", h.ChangeRequest.ListByDefense)
				defenses.POST("/:id/change-requests", middleware.RoleAuth(student, teacher), h.ChangeRequest.Create)
			}

			jury := authorized.Group("/jury", middleware.RoleAuth(admin))
			{
				jury.GET("/presidents/availability", h.Jury.PresidentAvailability)
				jury.GET("/presidents/eligible", h.Jury.EligiblePresidents)
			}

			changeRequests := authorized.Group("/change-requests", middleware.RoleAuth(admin))
			{
				changeRequests.GET("/pending", h.ChangeRequest.ListPending)
				changeRequests.POST("/:id/review", h.ChangeRequest.Review)
			}

			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			export := authorized.Group("/export", middleware.RoleAuth(admin, teacher))
			{
				export.GET("/planning.xlsx", h.Export.ExportPlanning)
				export.GET("/planning.ics", h.Export.ExportCalendar)
			}
		}
	}

	return r, nil
}
