package main

import (
	"net/http"
	"strings"
	"time"

	"ccportal/models"

	"github.com/gin-gonic/gin"
)

var csvNewlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// csvField renders one cell: newlines collapse to spaces, quotes double,
// and every field is wrapped in quotes regardless of content. Downstream
// spreadsheet imports rely on that uniform quoting, which is why this
// does not use encoding/csv.
func csvField(v string) string {
	v = csvNewlines.Replace(v)
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

const exportDateLayout = "2006-01-02"

// exportComplaintsHandler streams the filtered complaint register as CSV
// (default) or a JSON array. from/to are inclusive calendar dates.
func exportComplaintsHandler(c *gin.Context) {
	q := db.Model(&models.Complaint{})
	if v := c.Query("statusId"); v != "" {
		q = q.Where("status_id = ?", v)
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(exportDateLayout, v)
		if err != nil {
			abortError(c, http.StatusBadRequest, kindValidation, "invalid from date")
			return
		}
		q = q.Where("created_at >= ?", t)
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(exportDateLayout, v)
		if err != nil {
			abortError(c, http.StatusBadRequest, kindValidation, "invalid to date")
			return
		}
		q = q.Where("created_at < ?", t.AddDate(0, 0, 1))
	}

	var comps []models.Complaint
	if err := q.Order("created_at DESC").Find(&comps).Error; err != nil {
		abortError(c, http.StatusInternalServerError, kindStorage, "query failed")
		return
	}

	statuses := map[uint]string{}
	var rows []models.Status
	db.Find(&rows)
	for _, s := range rows {
		statuses[s.ID] = s.Name
	}

	if c.DefaultQuery("format", "csv") == "json" {
		out := make([]gin.H, 0, len(comps))
		for _, comp := range comps {
			out = append(out, gin.H{
				"trackingId": comp.TrackingID,
				"firstName":  comp.FirstName,
				"lastName":   comp.LastName,
				"email":      comp.Email,
				"cnic":       comp.CNIC,
				"address":    comp.Address,
				"complaint":  comp.Complaint,
				"status":     statuses[comp.StatusID],
				"createdAt":  comp.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, out)
		return
	}

	var b strings.Builder
	b.WriteString("Tracking ID,First Name,Last Name,Email,CNIC,Address,Complaint,Status,Created At\n")
	for _, comp := range comps {
		fields := []string{
			comp.TrackingID,
			comp.FirstName,
			comp.LastName,
			comp.Email,
			comp.CNIC,
			comp.Address,
			comp.Complaint,
			statuses[comp.StatusID],
			comp.CreatedAt.Format(time.RFC3339),
		}
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvField(f))
		}
		b.WriteByte('\n')
	}

	c.Header("Content-Disposition", `attachment; filename="complaints.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(b.String()))
}
