package main

import (
	"net/http"

	"ccportal/models"

	"github.com/gin-gonic/gin"
)

// policyRoute maps one (method, path) to its handler and allowed roles.
// A nil role list means any authenticated staff member. Keeping the policy
// in one table avoids per-handler gate drift.
type policyRoute struct {
	method  string
	path    string
	roles   []string
	handler gin.HandlerFunc
}

var staffOnly = []string{models.RoleAdmin, models.RoleSrRegistrar, models.RoleDO}
var registrarUp = []string{models.RoleAdmin, models.RoleSrRegistrar}
var adminOnly = []string{models.RoleAdmin}

func policyTable() []policyRoute {
	return []policyRoute{
		// master data (mutations)
		{http.MethodPost, "/api/master/categories", adminOnly, createCategoryHandler},
		{http.MethodDelete, "/api/master/categories/:id", adminOnly, deleteCategoryHandler},
		{http.MethodPost, "/api/master/companies", adminOnly, createCompanyHandler},
		{http.MethodDelete, "/api/master/companies/:id", adminOnly, deleteCompanyHandler},
		{http.MethodPost, "/api/master/types", adminOnly, createTypeHandler},
		{http.MethodDelete, "/api/master/types/:id", adminOnly, deleteTypeHandler},

		// complaints
		{http.MethodGet, "/api/complaints", nil, listComplaintsHandler},
		{http.MethodGet, "/api/complaints/:id", nil, complaintDetailHandler},
		{http.MethodPatch, "/api/complaints/:id/assign", staffOnly, assignComplaintHandler},
		{http.MethodPatch, "/api/complaints/:id/status", registrarUp, changeStatusHandler},
		{http.MethodPost, "/api/complaints/:id/remark", staffOnly, addRemarkHandler},
		{http.MethodPost, "/api/complaints/:id/ioms", staffOnly, createIOMHandler},
		{http.MethodGet, "/api/complaints/:id/ioms", staffOnly, listIOMsHandler},
		{http.MethodPost, "/api/complaints/:id/dispose", registrarUp, disposeComplaintHandler},
		{http.MethodGet, "/api/complaints/export/file", registrarUp, exportComplaintsHandler},

		// users
		{http.MethodGet, "/api/users", staffOnly, listUsersHandler},
		{http.MethodPost, "/api/users", adminOnly, createUserHandler},
		{http.MethodPatch, "/api/users/:id", adminOnly, updateUserHandler},
		{http.MethodPost, "/api/users/:id/reset-password", adminOnly, resetPasswordHandler},
		{http.MethodDelete, "/api/users/:id", adminOnly, deleteUserHandler},
	}
}

func setupRoutes(r *gin.Engine) {
	r.GET("/", healthHandler)
	r.POST("/api/auth/login", loginHandler)

	// master data reads are public (used by the submission form)
	r.GET("/api/master/categories", listCategoriesHandler)
	r.GET("/api/master/companies", listCompaniesHandler)
	r.GET("/api/master/types", listTypesHandler)
	r.GET("/api/master/statuses", listStatusesHandler)

	// public complaint surface
	r.POST("/api/complaints", submitComplaintHandler)
	r.GET("/api/complaints/track/:trackingId", trackComplaintHandler)

	auth := r.Group("", jwtAuthMiddleware())
	for _, rt := range policyTable() {
		handlers := make([]gin.HandlerFunc, 0, 2)
		if rt.roles != nil {
			handlers = append(handlers, requireRoles(rt.roles...))
		}
		handlers = append(handlers, rt.handler)
		auth.Handle(rt.method, rt.path, handlers...)
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "name": "Complaint Portal Backend"})
}
