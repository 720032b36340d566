package leave

import (
	"github.com/gin-gonic/gin"

	"github.com/pk2025teslead/smartlogx-app/internal/middleware"
	"github.com/pk2025teslead/smartlogx-app/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "create"), h.Create)
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), h.List)
		leaves.GET("/stats", middleware.RBACAuthorize(rbacService, "leave", "read"), h.Stats)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), h.GetById)
		leaves.GET("/:id/edit-window", middleware.RBACAuthorize(rbacService, "leave", "read"), h.EditWindow)
		leaves.PUT("/:id", middleware.RBACAuthorize(rbacService, "leave", "update"), h.Update)
		leaves.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave", "update"), h.Cancel)
	}

	admin := r.Group("/admin/leaves")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("ADMIN"))
	{
		admin.GET("", middleware.RBACAuthorize(rbacService, "leave_admin", "read"), h.AdminList)
		admin.GET("/stats", middleware.RBACAuthorize(rbacService, "leave_admin", "read"), h.AdminStats)
		admin.GET("/recent", middleware.RBACAuthorize(rbacService, "leave_admin", "read"), h.AdminRecent)
		admin.GET("/filter-users", middleware.RBACAuthorize(rbacService, "leave_admin", "read"), h.AdminFilterUsers)
		admin.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave_admin", "decide"), h.Approve)
		admin.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave_admin", "decide"), h.Reject)
		admin.PUT("/:id", middleware.RBACAuthorize(rbacService, "leave_admin", "update"), h.AdminUpdate)
		admin.DELETE("/:id", middleware.RBACAuthorize(rbacService, "leave_admin", "delete"), h.AdminDelete)
		admin.GET("/:id/audit", middleware.RBACAuthorize(rbacService, "leave_admin", "read"), h.AuditTrail)
	}
}
