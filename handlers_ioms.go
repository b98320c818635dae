package main

import (
	"net/http"
	"strconv"
	"strings"

	"ccportal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// createIOMHandler records an internal office memo against a complaint and
// reassigns the complaint to the recipient. Multipart: toUserId, subject,
// bodyHtml, up to 10 iomFiles (images/pdf/word, 10MB each).
func createIOMHandler(c *gin.Context) {
	toRaw := strings.TrimSpace(c.PostForm("toUserId"))
	toID, err := strconv.ParseUint(toRaw, 10, 64)
	if toRaw == "" || err != nil || toID == 0 {
		abortError(c, http.StatusBadRequest, kindValidation, "toUserId is required")
		return
	}
	subject := strings.TrimSpace(c.PostForm("subject"))
	bodyHTML := c.PostForm("bodyHtml")

	comp, ok := loadComplaintScoped(c)
	if !ok {
		return
	}
	var target models.User
	if err := db.First(&target, uint(toID)).Error; err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Recipient does not exist")
		return
	}

	var files []gin.H
	var paths []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		fhs := form.File["iomFiles"]
		if len(fhs) > 10 {
			abortError(c, http.StatusBadRequest, kindValidation, "at most 10 files are allowed")
			return
		}
		for _, fh := range fhs {
			if err := validateUpload(fh, maxStaffUploadSize, iomAttachmentTypes); err != nil {
				abortError(c, http.StatusBadRequest, kindValidation, err.Error())
				return
			}
		}
		for _, fh := range fhs {
			p, err := saveUpload(c, fh)
			if err != nil {
				abortError(c, http.StatusInternalServerError, kindStorage, "file save failed")
				return
			}
			paths = append(paths, p)
			files = append(files, gin.H{"path": p, "name": fh.Filename})
		}
	}

	actorID := currentUserID(c)
	iom := models.IOM{
		ComplaintID: comp.ID,
		FromUserID:  actorID,
		ToUserID:    target.ID,
		Subject:     subject,
		BodyHTML:    bodyHTML,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&iom).Error; err != nil {
			return err
		}
		for _, p := range paths {
			att := models.IOMAttachment{IOMID: iom.ID, Path: p}
			if err := tx.Create(&att).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Complaint{}).Where("id = ?", comp.ID).
			Update("assigned_to", target.ID).Error; err != nil {
			return err
		}
		log := models.ComplaintLog{
			ComplaintID: comp.ID,
			UserID:      &actorID,
			Comments:    "IOM sent to " + target.Username + ": " + subject,
			Visibility:  models.VisibilitySystem,
		}
		return tx.Create(&log).Error
	})
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not create IOM")
		return
	}

	notifyComplainant(comp.ID, "Complaint Forwarded", "complaint-forwarded", nil)
	notifyIOMRecipient(target, subject)

	c.JSON(http.StatusOK, gin.H{
		"id":        iom.ID,
		"message":   "IOM created",
		"createdAt": iom.CreatedAt,
		"files":     files,
	})
}

func listIOMsHandler(c *gin.Context) {
	comp, ok := loadComplaintScoped(c)
	if !ok {
		return
	}

	var ioms []models.IOM
	if err := db.Where("complaint_id = ?", comp.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&ioms).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}

	iomIDs := make([]uint, 0, len(ioms))
	userIDs := make([]uint, 0, 2*len(ioms))
	for _, m := range ioms {
		iomIDs = append(iomIDs, m.ID)
		userIDs = append(userIDs, m.FromUserID, m.ToUserID)
	}
	users := usersByID(userIDs)

	attsByIOM := map[uint][]gin.H{}
	if len(iomIDs) > 0 {
		var atts []models.IOMAttachment
		db.Where("iom_id IN ?", iomIDs).Find(&atts)
		for _, a := range atts {
			attsByIOM[a.IOMID] = append(attsByIOM[a.IOMID], gin.H{"id": a.ID, "path": a.Path})
		}
	}

	username := func(id uint) any {
		if u, ok := users[id]; ok {
			return u.Username
		}
		return nil
	}
	out := make([]gin.H, 0, len(ioms))
	for _, m := range ioms {
		atts := attsByIOM[m.ID]
		if atts == nil {
			atts = []gin.H{}
		}
		out = append(out, gin.H{
			"id":          m.ID,
			"subject":     m.Subject,
			"bodyHtml":    m.BodyHTML,
			"from":        gin.H{"id": m.FromUserID, "username": username(m.FromUserID)},
			"to":          gin.H{"id": m.ToUserID, "username": username(m.ToUserID)},
			"createdAt":   m.CreatedAt,
			"attachments": atts,
		})
	}
	c.JSON(http.StatusOK, out)
}
