package main

import (
	"net/http"

	"ccportal/models"

	"github.com/gin-gonic/gin"
)

// Master lists are plain CRUD: reads are public (the submission form needs
// them), mutations are gated to ADMIN in the route policy. Deleting an item
// that complaints still reference is allowed; the dangling id is tolerated
// at read time.

type masterCreateRequest struct {
	Name string `json:"name" binding:"required"`
}

func listCategoriesHandler(c *gin.Context) {
	var items []models.Category
	if err := db.Order("name").Find(&items).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	c.JSON(http.StatusOK, items)
}

func createCategoryHandler(c *gin.Context) {
	var req masterCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "name is required")
		return
	}
	item := models.Category{Name: req.Name}
	if err := db.Create(&item).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "create failed")
		return
	}
	c.JSON(http.StatusOK, item)
}

func deleteCategoryHandler(c *gin.Context) {
	res := db.Delete(&models.Category{}, "id = ?", c.Param("id"))
	if res.Error != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": res.RowsAffected})
}

func listCompaniesHandler(c *gin.Context) {
	var items []models.Company
	if err := db.Order("name").Find(&items).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	c.JSON(http.StatusOK, items)
}

func createCompanyHandler(c *gin.Context) {
	var req masterCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "name is required")
		return
	}
	item := models.Company{Name: req.Name}
	if err := db.Create(&item).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "create failed")
		return
	}
	c.JSON(http.StatusOK, item)
}

func deleteCompanyHandler(c *gin.Context) {
	res := db.Delete(&models.Company{}, "id = ?", c.Param("id"))
	if res.Error != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": res.RowsAffected})
}

func listTypesHandler(c *gin.Context) {
	var items []models.ComplaintType
	if err := db.Order("name").Find(&items).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	c.JSON(http.StatusOK, items)
}

func createTypeHandler(c *gin.Context) {
	var req masterCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "name is required")
		return
	}
	item := models.ComplaintType{Name: req.Name}
	if err := db.Create(&item).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "create failed")
		return
	}
	c.JSON(http.StatusOK, item)
}

func deleteTypeHandler(c *gin.Context) {
	res := db.Delete(&models.ComplaintType{}, "id = ?", c.Param("id"))
	if res.Error != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": res.RowsAffected})
}

func listStatusesHandler(c *gin.Context) {
	var items []models.Status
	if err := db.Order("id").Find(&items).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	c.JSON(http.StatusOK, items)
}
