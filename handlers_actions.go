package main

import (
	"net/http"
	"strings"

	"ccportal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type assignRequest struct {
	UserID uint `json:"userId" binding:"required"`
}

// assignComplaintHandler forwards a complaint to a staff user. The target
// must exist; the change and its audit entry commit together.
func assignComplaintHandler(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "userId is required")
		return
	}
	comp, ok := loadComplaintScoped(c)
	if !ok {
		return
	}
	var target models.User
	if err := db.First(&target, req.UserID).Error; err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Assignee does not exist")
		return
	}

	actorID := currentUserID(c)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Complaint{}).Where("id = ?", comp.ID).
			Update("assigned_to", target.ID).Error; err != nil {
			return err
		}
		log := models.ComplaintLog{
			ComplaintID: comp.ID,
			UserID:      &actorID,
			Comments:    "Forwarded to " + target.Username,
			Visibility:  models.VisibilitySystem,
		}
		return tx.Create(&log).Error
	})
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not assign complaint")
		return
	}

	notifyComplainant(comp.ID, "Complaint Forwarded", "complaint-forwarded", nil)
	notifyAssignedUser(comp, target)

	c.JSON(http.StatusOK, gin.H{"updated": 1})
}

type statusChangeRequest struct {
	StatusID uint `json:"statusId" binding:"required"`
}

func changeStatusHandler(c *gin.Context) {
	var req statusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "statusId is required")
		return
	}
	comp, ok := loadComplaintScoped(c)
	if !ok {
		return
	}
	var status models.Status
	if err := db.First(&status, req.StatusID).Error; err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Unknown status")
		return
	}

	actorID := currentUserID(c)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Complaint{}).Where("id = ?", comp.ID).
			Update("status_id", status.ID).Error; err != nil {
			return err
		}
		log := models.ComplaintLog{
			ComplaintID: comp.ID,
			UserID:      &actorID,
			Comments:    "Status changed to " + status.Name,
			Visibility:  models.VisibilitySystem,
		}
		return tx.Create(&log).Error
	})
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not change status")
		return
	}

	notifyComplainant(comp.ID, "Complaint Status Updated", "status-updated",
		map[string]string{"statusName": status.Name})

	c.JSON(http.StatusOK, gin.H{"updated": 1})
}

type remarkRequest struct {
	Comments   string `json:"comments" binding:"required"`
	Visibility string `json:"visibility"`
}

// addRemarkHandler appends a staff remark. Visibility comes from the
// request field, or from a legacy "[PUBLIC]"/"[INTERNAL]" prefix on the
// text, defaulting to PUBLIC.
func addRemarkHandler(c *gin.Context) {
	var req remarkRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Comments) == "" {
		abortError(c, http.StatusBadRequest, kindValidation, "comments is required")
		return
	}
	comp, ok := loadComplaintScoped(c)
	if !ok {
		return
	}

	visibility, text := models.SplitVisibilityPrefix(strings.TrimSpace(req.Comments))
	switch req.Visibility {
	case models.VisibilityPublic, models.VisibilityInternal:
		visibility = req.Visibility
	}

	actorID := currentUserID(c)
	log := models.ComplaintLog{
		ComplaintID: comp.ID,
		UserID:      &actorID,
		Comments:    text,
		Visibility:  visibility,
	}
	if err := db.Create(&log).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not add remark")
		return
	}

	notifyComplainant(comp.ID, "New Remark on Your Complaint", "remark-added", nil)

	c.JSON(http.StatusOK, gin.H{"id": log.ID})
}

// disposeComplaintHandler records the final decision. A note or a decision
// file (pdf/word, 10MB) is required; disposal always forces Closed.
func disposeComplaintHandler(c *gin.Context) {
	note := strings.TrimSpace(c.PostForm("note"))

	filePath := ""
	if fh, err := c.FormFile("decisionFile"); err == nil {
		if err := validateUpload(fh, maxStaffUploadSize, decisionFileTypes); err != nil {
			abortError(c, http.StatusBadRequest, kindValidation, err.Error())
			return
		}
		p, err := saveUpload(c, fh)
		if err != nil {
			abortError(c, http.StatusInternalServerError, kindStorage, "file save failed")
			return
		}
		filePath = p
	}
	if note == "" && filePath == "" {
		abortError(c, http.StatusBadRequest, kindValidation, "A note or decision file is required")
		return
	}

	comp, ok := loadComplaintScoped(c)
	if !ok {
		return
	}

	actorID := currentUserID(c)
	disposal := models.Disposal{
		ComplaintID: comp.ID,
		FilePath:    filePath,
		Note:        note,
		UserID:      &actorID,
	}
	comment := "Disposed of"
	if note != "" {
		comment = "Disposed of: " + note
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&disposal).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Complaint{}).Where("id = ?", comp.ID).
			Update("status_id", models.StatusClosed).Error; err != nil {
			return err
		}
		log := models.ComplaintLog{
			ComplaintID: comp.ID,
			UserID:      &actorID,
			Comments:    comment,
			Visibility:  models.VisibilitySystem,
		}
		return tx.Create(&log).Error
	})
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not dispose complaint")
		return
	}

	template := "disposed"
	if filePath != "" {
		template = "disposed-with-file"
	}
	notifyComplainant(comp.ID, "Complaint Disposed", template, nil)

	c.JSON(http.StatusOK, gin.H{"id": disposal.ID, "message": "Complaint disposed"})
}
