package main

import (
	"os"
	"strconv"
	"strings"

	"ccportal/models"
	"ccportal/pkg/notify"
)

// mailer is the injected notification channel. Noop until initNotifier
// finds SMTP configuration, so lifecycle code never branches on "is email
// configured".
var (
	mailer    notify.Notifier = notify.Noop{}
	templates *notify.TemplateStore
)

func initNotifier() {
	templates = notify.NewTemplateStore(os.Getenv("MAIL_TEMPLATES_DIR"), logger)

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		logger.Info("SMTP_HOST not set, email sending is disabled")
		mailer = notify.Noop{}
		return
	}
	port := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "no-reply@complaints.local"
	}
	mailer = notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     from,
	})
	logger.Infof("SMTP notifier enabled host=%s port=%d", host, port)
}

func portalBaseURL() string {
	if v := os.Getenv("BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:5000"
}

// notifyComplainant emails the complainant of the given complaint, if they
// left an address. Fire-and-forget: runs in its own goroutine, failures are
// logged and never surfaced or retried.
func notifyComplainant(complaintID uint, subject, templateName string, vars map[string]string) {
	go func() {
		var comp models.Complaint
		if err := db.First(&comp, complaintID).Error; err != nil {
			logger.Warnf("notify: complaint %d not found: %v", complaintID, err)
			return
		}
		if comp.Email == "" {
			return
		}
		if vars == nil {
			vars = map[string]string{}
		}
		vars["trackingId"] = comp.TrackingID
		vars["baseUrl"] = portalBaseURL()
		body := templates.Render(templateName, vars)
		if err := mailer.Notify(comp.Email, subject, body); err != nil {
			logger.Warnf("notify: send to complainant of %s failed: %v", comp.TrackingID, err)
		}
	}()
}

// notifyRegistrarsNewComplaint tells every Senior Registrar with a
// configured email about a fresh submission.
func notifyRegistrarsNewComplaint(comp models.Complaint) {
	go func() {
		var registrars []models.User
		if err := db.Where("role = ? AND email <> ''", models.RoleSrRegistrar).Find(&registrars).Error; err != nil {
			logger.Warnf("notify: cannot load registrars: %v", err)
			return
		}
		if len(registrars) == 0 {
			return
		}
		name := strings.TrimSpace(comp.FirstName + " " + comp.LastName)
		if name == "" {
			name = "-"
		}
		email := comp.Email
		if email == "" {
			email = "-"
		}
		subject := "New complaint submitted: " + comp.TrackingID
		body := templates.Render("new-complaint-staff", map[string]string{
			"trackingId":       comp.TrackingID,
			"complainantName":  name,
			"complainantEmail": email,
		})
		for _, u := range registrars {
			if err := mailer.Notify(u.Email, subject, body); err != nil {
				logger.Warnf("notify: registrar mail to %s failed: %v", u.Email, err)
			}
		}
	}()
}

// notifyAssignedUser tells the new assignee about a forwarded complaint.
func notifyAssignedUser(comp models.Complaint, target models.User) {
	if target.Email == "" {
		return
	}
	go func() {
		name := strings.TrimSpace(comp.FirstName + " " + comp.LastName)
		if name == "" {
			name = "-"
		}
		email := comp.Email
		if email == "" {
			email = "-"
		}
		subject := "New complaint assigned: " + comp.TrackingID
		body := templates.Render("assigned-staff", map[string]string{
			"trackingId":       comp.TrackingID,
			"complainantName":  name,
			"complainantEmail": email,
		})
		if err := mailer.Notify(target.Email, subject, body); err != nil {
			logger.Warnf("notify: assignment mail to %s failed: %v", target.Email, err)
		}
	}()
}

// notifyIOMRecipient tells a memo recipient about the new IOM.
func notifyIOMRecipient(target models.User, subject string) {
	if target.Email == "" {
		return
	}
	go func() {
		body := templates.Render("iom-assigned", map[string]string{"subject": subject})
		if err := mailer.Notify(target.Email, "New IOM Assigned", body); err != nil {
			logger.Warnf("notify: IOM mail to %s failed: %v", target.Email, err)
		}
	}()
}
