package routes

import (
	"github.com/gin-gonic/gin"

	"dblens/internal/handlers"
	"dblens/internal/middlewares"
	"dblens/internal/services"
)

// DatabaseRoutes wires everything that hangs off a connection: CRUD, schema,
// queries, backups, snapshots and health.
type DatabaseRoutes struct {
	connHandler     *handlers.ConnectionHandler
	queryHandler    *handlers.QueryHandler
	backupHandler   *handlers.BackupHandler
	snapshotHandler *handlers.SnapshotHandler
	healthHandler   *handlers.HealthHandler
	roleSvc         *services.RoleService
	orgSvc          *services.OrganizationService
}

func NewDatabaseRoutes(
	connHandler *handlers.ConnectionHandler,
	queryHandler *handlers.QueryHandler,
	backupHandler *handlers.BackupHandler,
	snapshotHandler *handlers.SnapshotHandler,
	healthHandler *handlers.HealthHandler,
	roleSvc *services.RoleService,
	orgSvc *services.OrganizationService,
) *DatabaseRoutes {
	return &DatabaseRoutes{
		connHandler:     connHandler,
		queryHandler:    queryHandler,
		backupHandler:   backupHandler,
		snapshotHandler: snapshotHandler,
		healthHandler:   healthHandler,
		roleSvc:         roleSvc,
		orgSvc:          orgSvc,
	}
}

func (r *DatabaseRoutes) RegisterRoutes(router *gin.RouterGroup, authenticate gin.HandlerFunc) {
	perm := func(key string) gin.HandlerFunc {
		return middlewares.RequirePermission(r.roleSvc, key)
	}

	databases := router.Group("/databases")
	databases.Use(authenticate)
	databases.Use(middlewares.OrganizationScope(r.orgSvc))
	{
		databases.GET("", perm("connections.view"), r.connHandler.List)
		databases.POST("", perm("connections.create"), r.connHandler.Create)
		databases.GET("/:id", perm("connections.view"), r.connHandler.Get)
		databases.PATCH("/:id", perm("connections.edit"), r.connHandler.Update)
		databases.DELETE("/:id", perm("connections.delete"), r.connHandler.Delete)
		databases.POST("/:id/test", perm("connections.test"), r.connHandler.Test)

		databases.GET("/:id/schema", perm("schema.view"), r.queryHandler.Schema)
		databases.POST("/:id/query", perm("query.execute"), r.queryHandler.Query)
		databases.POST("/:id/execute", perm("query.execute"), r.queryHandler.Execute)

		databases.GET("/:id/backups", perm("backups.view"), r.backupHandler.List)
		databases.POST("/:id/backups", perm("backups.create"), r.backupHandler.Create)

		databases.GET("/:id/snapshots", perm("snapshots.view"), r.snapshotHandler.List)
		databases.POST("/:id/snapshots", perm("snapshots.create"), r.snapshotHandler.Create)

		databases.GET("/:id/health", perm("monitoring.view"), r.healthHandler.Current)
		databases.GET("/:id/health/history", perm("monitoring.view"), r.healthHandler.History)
		databases.GET("/:id/health/stats", perm("monitoring.view"), r.healthHandler.Stats)
	}

	backups := router.Group("/backups")
	backups.Use(authenticate)
	{
		backups.GET("/:backupId", perm("backups.view"), r.backupHandler.Get)
		backups.POST("/:backupId/restore", perm("backups.restore"), r.backupHandler.Restore)
		backups.GET("/:backupId/download", perm("backups.download"), r.backupHandler.Download)
		backups.DELETE("/:backupId", perm("backups.delete"), r.backupHandler.Delete)
	}

	schedules := router.Group("/backup-schedules")
	schedules.Use(authenticate)
	{
		schedules.GET("", perm("schedules.view"), r.backupHandler.ListSchedules)
		schedules.POST("", perm("schedules.create"), r.backupHandler.CreateSchedule)
		schedules.PATCH("/:scheduleId", perm("schedules.edit"), r.backupHandler.UpdateSchedule)
		schedules.DELETE("/:scheduleId", perm("schedules.delete"), r.backupHandler.DeleteSchedule)
	}

	snapshots := router.Group("/snapshots")
	snapshots.Use(authenticate)
	{
		snapshots.GET("/:snapshotId", perm("snapshots.view"), r.snapshotHandler.Get)
		snapshots.GET("/:snapshotId/schema", perm("snapshots.view"), r.snapshotHandler.Schema)
		snapshots.GET("/:snapshotId/compare", perm("snapshots.view"), r.snapshotHandler.Compare)
		snapshots.POST("/:snapshotId/restore", perm("snapshots.restore"), r.snapshotHandler.Restore)
		snapshots.DELETE("/:snapshotId", perm("snapshots.delete"), r.snapshotHandler.Delete)
	}
}
