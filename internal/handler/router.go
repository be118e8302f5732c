package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/middleware"
	"github.com/noah-isme/tutor-shift-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Templates *TemplateHandler
	Shifts    *ShiftHandler
	Lessons   *LessonAssignmentHandler
	Teachers  *TeacherAssignmentHandler
	Calendar  *CalendarHandler
	Intensive *IntensiveHandler
	Rollover  *RolloverHandler
	Reports   *ReportHandler
	Feeds     *FeedHandler
}

// RegisterRoutes mounts the API. auth authenticates the caller; the feed download route
// stays public because it carries its own signature.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, auth gin.HandlerFunc, logger *zap.Logger) {
	api.Use(middleware.WithResponseMeta())

	api.GET("/feeds/:kind/:file", h.Feeds.Serve)

	secured := api.Group("")
	secured.Use(auth)

	anyone := middleware.RequireRoles(models.RoleOwner, models.RoleStaff, models.RoleTeacher)
	office := middleware.RequireRoles(models.RoleOwner, models.RoleStaff)
	owner := middleware.RequireRoles(models.RoleOwner)

	shifts := secured.Group("/shifts")
	shifts.Use(middleware.Audit(logger, "shifts"))
	shifts.GET("/:date", anyone, h.Shifts.GetDay)
	shifts.PUT("/:date", office, h.Shifts.SaveDay)
	shifts.DELETE("/:date", office, h.Shifts.ResetDay)
	shifts.POST("/:date/reload", office, h.Shifts.Reload)
	shifts.POST("/:date/reload-week", office, h.Shifts.ReloadWeek)
	shifts.POST("/lessons", office, h.Shifts.Reschedule)
	shifts.POST("/teachers", office, h.Shifts.AddTeacher)
	shifts.DELETE("/cells/:id/teacher", office, h.Shifts.RemoveTeacher)

	occurrences := secured.Group("/occurrences", office, middleware.Audit(logger, "occurrences"))
	occurrences.POST("/:id/absence", h.Shifts.MarkAbsent)
	occurrences.PATCH("/:id/reported", h.Shifts.SetReported)

	templates := secured.Group("/templates", office, middleware.Audit(logger, "templates"))
	templates.GET("", h.Templates.List)
	templates.PUT("", h.Templates.Save)
	templates.POST("/initialize", owner, h.Templates.Initialize)

	lessons := secured.Group("/lesson-assignments", office, middleware.Audit(logger, "lesson_assignments"))
	lessons.GET("", h.Lessons.List)
	lessons.POST("", h.Lessons.Create)
	lessons.GET("/:id", h.Lessons.Get)
	lessons.POST("/:id/replace", h.Lessons.Replace)
	lessons.POST("/:id/cancel", h.Lessons.Cancel)
	lessons.POST("/:id/continue", h.Lessons.ContinueNextYear)
	lessons.POST("/:id/change-next-year", h.Lessons.ChangeNextYear)
	lessons.POST("/:id/end", h.Lessons.EndAtYearEnd)

	teachers := secured.Group("/teacher-assignments", office, middleware.Audit(logger, "teacher_assignments"))
	teachers.GET("", h.Teachers.List)
	teachers.POST("", h.Teachers.Create)
	teachers.POST("/:id/replace", h.Teachers.Replace)
	teachers.POST("/:id/cancel", h.Teachers.Cancel)
	teachers.POST("/:id/continue", h.Teachers.ContinueNextYear)
	teachers.POST("/:id/change-next-year", h.Teachers.ChangeNextYear)
	teachers.POST("/:id/end", h.Teachers.EndAtYearEnd)

	calendar := secured.Group("/calendar", middleware.Audit(logger, "calendar"))
	calendar.GET("/events", anyone, h.Calendar.List)
	calendar.POST("/closures", office, h.Calendar.DeclareClosure)
	calendar.DELETE("/closures/:id", office, h.Calendar.RevokeClosure)

	intensive := secured.Group("", office, middleware.Audit(logger, "intensive"))
	intensive.POST("/intensive-periods", h.Intensive.CreatePeriod)
	intensive.DELETE("/intensive-periods/:id", h.Intensive.DeletePeriod)
	intensive.POST("/intensive-periods/:id/assignments", h.Intensive.CreateAssignment)
	intensive.PUT("/intensive-periods/:id/person-requests", h.Intensive.UpdatePersonRequests)
	intensive.PUT("/intensive-teacher-requests", h.Intensive.UpdateTeacherRequests)

	rollover := secured.Group("/rollover", owner, middleware.Audit(logger, "rollover"))
	rollover.POST("", h.Rollover.Trigger)
	rollover.GET("/runs", h.Rollover.ListRuns)

	reports := secured.Group("", office)
	reports.GET("/reports/lesson-counts", h.Reports.LessonCounts)
	reports.GET("/exports/shifts/:date", h.Reports.DailyRoster)

	secured.POST("/feeds", anyone, h.Feeds.Create)
}
