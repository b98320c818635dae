package main

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ccportal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const pageSize = 50

// newTrackingID derives the public tracking code from a high-resolution
// clock reading. Uniqueness is still enforced by the store; submit retries
// on the (unlikely) collision.
func newTrackingID() string {
	return "CMP-" + strings.ToUpper(strconv.FormatInt(time.Now().UnixNano(), 36))
}

func parseUintPostForm(c *gin.Context, field string) *uint {
	v := strings.TrimSpace(c.PostForm(field))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	u := uint(n)
	return &u
}

// submitComplaintHandler is the public intake endpoint: multipart form with
// up to 5 attachments (png/jpeg/pdf, 5MB each).
func submitComplaintHandler(c *gin.Context) {
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["attachments"]
	}
	if len(files) > 5 {
		abortError(c, http.StatusBadRequest, kindValidation, "at most 5 attachments are allowed")
		return
	}
	for _, fh := range files {
		if err := validateUpload(fh, maxPublicUploadSize, publicAttachmentTypes); err != nil {
			abortError(c, http.StatusBadRequest, kindValidation, err.Error())
			return
		}
	}

	comp := models.Complaint{
		FirstName:  c.PostForm("firstName"),
		LastName:   c.PostForm("lastName"),
		CNIC:       c.PostForm("cnic"),
		Email:      c.PostForm("email"),
		Address:    c.PostForm("address"),
		ConsumerNo: c.PostForm("consumerNo"),
		Complaint:  c.PostForm("complaint"),
		CategoryID: parseUintPostForm(c, "categoryId"),
		CompanyID:  parseUintPostForm(c, "companyId"),
		TypeID:     parseUintPostForm(c, "typeId"),
		StatusID:   models.StatusPending,
	}

	// pick an unused tracking id before touching the store
	for i := 0; ; i++ {
		comp.TrackingID = newTrackingID()
		var cnt int64
		db.Model(&models.Complaint{}).Where("tracking_id = ?", comp.TrackingID).Count(&cnt)
		if cnt == 0 {
			break
		}
		if i >= 5 {
			abortError(c, http.StatusInternalServerError, kindStorage, "could not allocate tracking id")
			return
		}
	}

	// store files first; an orphan blob on a failed insert is tolerated
	type saved struct{ path, thumb string }
	var stored []saved
	for _, fh := range files {
		p, err := saveUpload(c, fh)
		if err != nil {
			abortError(c, http.StatusInternalServerError, kindStorage, "file save failed")
			return
		}
		stored = append(stored, saved{path: p, thumb: thumbnailFor(p, fh.Header.Get("Content-Type"))})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comp).Error; err != nil {
			return err
		}
		for _, s := range stored {
			att := models.Attachment{ComplaintID: comp.ID, Path: s.path, ThumbPath: s.thumb}
			if err := tx.Create(&att).Error; err != nil {
				return err
			}
		}
		log := models.ComplaintLog{
			ComplaintID: comp.ID,
			Comments:    "Complaint submitted",
			Visibility:  models.VisibilitySystem,
		}
		return tx.Create(&log).Error
	})
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "could not record complaint")
		return
	}

	notifyComplainant(comp.ID, "Complaint Submitted", "complaint-submitted", nil)
	notifyRegistrarsNewComplaint(comp)

	c.JSON(http.StatusOK, gin.H{"id": comp.ID, "trackingId": comp.TrackingID})
}

// trackComplaintHandler is the public, unauthenticated projection keyed by
// tracking code: status, attachments, public/system logs, latest disposal.
// Internal remarks stay internal.
func trackComplaintHandler(c *gin.Context) {
	var comp models.Complaint
	err := db.Where("tracking_id = ?", c.Param("trackingId")).First(&comp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}

	logs, err := logPayload(comp.ID, false)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          comp.ID,
		"trackingId":  comp.TrackingID,
		"status":      gin.H{"id": comp.StatusID, "name": statusName(comp.StatusID)},
		"createdAt":   comp.CreatedAt,
		"updatedAt":   comp.UpdatedAt,
		"attachments": attachmentPayload(comp.ID),
		"logs":        logs,
		"disposal":    disposalPayload(comp.ID),
	})
}

func listComplaintsHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	q := db.Model(&models.Complaint{})
	if v := c.Query("statusId"); v != "" {
		q = q.Where("status_id = ?", v)
	}
	if v := c.Query("companyId"); v != "" {
		q = q.Where("company_id = ?", v)
	}
	// a Dealing Officer only ever sees their own assignments
	if currentRole(c) == models.RoleDO {
		q = q.Where("assigned_to = ?", currentUserID(c))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	var comps []models.Complaint
	if err := q.Order("created_at DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&comps).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}

	userIDs := make([]uint, 0, len(comps))
	for _, comp := range comps {
		if comp.AssignedTo != nil {
			userIDs = append(userIDs, *comp.AssignedTo)
		}
	}
	users := usersByID(userIDs)

	items := make([]gin.H, 0, len(comps))
	for _, comp := range comps {
		var assigned any
		if comp.AssignedTo != nil {
			if u, ok := users[*comp.AssignedTo]; ok {
				assigned = gin.H{"id": u.ID, "username": u.Username}
			}
		}
		items = append(items, gin.H{
			"id":         comp.ID,
			"trackingId": comp.TrackingID,
			"firstName":  comp.FirstName,
			"lastName":   comp.LastName,
			"status":     gin.H{"id": comp.StatusID, "name": statusName(comp.StatusID)},
			"statusId":   comp.StatusID,
			"assignedTo": assigned,
			"createdAt":  comp.CreatedAt,
			"updatedAt":  comp.UpdatedAt,
		})
	}

	pages := (int(total) + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "pages": pages})
}

func complaintDetailHandler(c *gin.Context) {
	comp, ok := loadComplaintScoped(c)
	if !ok {
		return
	}

	var assigned any
	if comp.AssignedTo != nil {
		var u models.User
		if err := db.First(&u, *comp.AssignedTo).Error; err == nil {
			assigned = gin.H{"id": u.ID, "username": u.Username}
		}
	}
	logs, err := logPayload(comp.ID, true)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          comp.ID,
		"trackingId":  comp.TrackingID,
		"firstName":   comp.FirstName,
		"lastName":    comp.LastName,
		"cnic":        comp.CNIC,
		"email":       comp.Email,
		"address":     comp.Address,
		"consumerNo":  comp.ConsumerNo,
		"complaint":   comp.Complaint,
		"categoryId":  comp.CategoryID,
		"companyId":   comp.CompanyID,
		"typeId":      comp.TypeID,
		"status":      gin.H{"id": comp.StatusID, "name": statusName(comp.StatusID)},
		"assignedTo":  assigned,
		"createdAt":   comp.CreatedAt,
		"updatedAt":   comp.UpdatedAt,
		"attachments": attachmentPayload(comp.ID),
		"logs":        logs,
		"disposal":    disposalPayload(comp.ID),
	})
}

// loadComplaintScoped fetches the :id complaint and applies the DO
// ownership rule: 404 when the row is absent, 403 when a Dealing Officer
// asks for a complaint not assigned to them.
func loadComplaintScoped(c *gin.Context) (models.Complaint, bool) {
	var comp models.Complaint
	err := db.First(&comp, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		abortError(c, http.StatusNotFound, kindNotFound, "Complaint not found")
		return comp, false
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return comp, false
	}
	if currentRole(c) == models.RoleDO {
		if comp.AssignedTo == nil || *comp.AssignedTo != currentUserID(c) {
			abortError(c, http.StatusForbidden, kindForbidden, "Forbidden")
			return comp, false
		}
	}
	return comp, true
}

// ---- shared payload helpers ----

func statusName(id uint) string {
	var s models.Status
	if err := db.First(&s, id).Error; err != nil {
		return strconv.FormatUint(uint64(id), 10)
	}
	return s.Name
}

func usersByID(ids []uint) map[uint]models.User {
	out := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return out
	}
	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		logger.Warnf("user lookup failed: %v", err)
		return out
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out
}

func attachmentPayload(complaintID uint) []gin.H {
	var atts []models.Attachment
	db.Where("complaint_id = ?", complaintID).Find(&atts)
	out := make([]gin.H, 0, len(atts))
	for _, a := range atts {
		item := gin.H{"id": a.ID, "path": a.Path}
		if a.ThumbPath != "" {
			item["thumbPath"] = a.ThumbPath
		}
		out = append(out, item)
	}
	return out
}

// logPayload returns the complaint's audit trail newest-first. Staff
// readers see everything; the public projection drops INTERNAL entries.
// User references are weak: a deleted author renders as a null user.
func logPayload(complaintID uint, includeInternal bool) ([]gin.H, error) {
	var logs []models.ComplaintLog
	if err := db.Where("complaint_id = ?", complaintID).
		Order("created_at DESC").Order("id DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	userIDs := make([]uint, 0, len(logs))
	for _, l := range logs {
		if l.UserID != nil {
			userIDs = append(userIDs, *l.UserID)
		}
	}
	users := usersByID(userIDs)

	out := make([]gin.H, 0, len(logs))
	for _, l := range logs {
		visibility, text := l.Resolve()
		if !includeInternal && visibility == models.VisibilityInternal {
			continue
		}
		var user any
		if l.UserID != nil {
			if u, ok := users[*l.UserID]; ok {
				user = gin.H{"username": u.Username, "role": u.Role}
			}
		}
		out = append(out, gin.H{
			"id":         l.ID,
			"comments":   text,
			"visibility": visibility,
			"createdAt":  l.CreatedAt,
			"user":       user,
		})
	}
	return out, nil
}

// disposalPayload surfaces only the most recent disposal, or nil.
func disposalPayload(complaintID uint) any {
	var d models.Disposal
	err := db.Where("complaint_id = ?", complaintID).
		Order("created_at DESC").Order("id DESC").
		First(&d).Error
	if err != nil {
		return nil
	}
	var username any
	if d.UserID != nil {
		var u models.User
		if err := db.First(&u, *d.UserID).Error; err == nil {
			username = u.Username
		}
	}
	return gin.H{
		"id":        d.ID,
		"note":      d.Note,
		"filePath":  d.FilePath,
		"createdAt": d.CreatedAt,
		"user":      gin.H{"username": username},
	}
}
