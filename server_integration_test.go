package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger = zap.NewNop().Sugar()
	jwtSecret = []byte("test-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("UPLOAD_BASE", t.TempDir())
	t.Setenv("SMTP_HOST", "")
	t.Setenv("MAIL_TEMPLATES_DIR", "")
	initDB()
	initNotifier()
	r := gin.New()
	setupRoutes(r)
	return r
}

func loginAs(t *testing.T, r http.Handler, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp := performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login %s failed status=%d body=%s", username, resp.Code, resp.Body.String())
	}
	var out map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	token, _ := out["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", out)
	}
	return token
}

func createStaff(t *testing.T, r http.Handler, adminToken, username, password, role string) uint {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password, "role": role, "email": ""})
	resp := performRequest(r, http.MethodPost, "/api/users", bytes.NewBuffer(body), adminToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create user %s failed status=%d body=%s", username, resp.Code, resp.Body.String())
	}
	var out map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	id, _ := out["id"].(float64)
	if id == 0 {
		t.Fatalf("missing id in create user response: %+v", out)
	}
	return uint(id)
}

// submitComplaint posts a minimal public complaint with one PDF attachment
// and returns (id, trackingId).
func submitComplaint(t *testing.T, r http.Handler, email string) (uint, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("firstName", "Ali")
	_ = mw.WriteField("lastName", "Khan")
	_ = mw.WriteField("cnic", "35201-1234567-1")
	_ = mw.WriteField("email", email)
	_ = mw.WriteField("address", "12 Canal Road")
	_ = mw.WriteField("complaint", "Meter reading is wrong\nsecond line")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="attachments"; filename="evidence.pdf"`)
	h.Set("Content-Type", "application/pdf")
	p, _ := mw.CreatePart(h)
	_, _ = p.Write([]byte("%PDF-1.4 fake"))
	_ = mw.Close()

	resp := performRequest(r, http.MethodPost, "/api/complaints", buf, "", mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("submit failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var out map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	id, _ := out["id"].(float64)
	tid, _ := out["trackingId"].(string)
	if id == 0 || !strings.HasPrefix(tid, "CMP-") {
		t.Fatalf("bad submit response: %+v", out)
	}
	return uint(id), tid
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Seeded admin logs in
	adminToken := loginAs(t, r, "admin", "admin123")

	// 2. Admin provisions the staff
	doID := createStaff(t, r, adminToken, "officer1", "secret123", "DO")
	regID := createStaff(t, r, adminToken, "registrar1", "secret123", "SR_REGISTRAR")
	doToken := loginAs(t, r, "officer1", "secret123")
	regToken := loginAs(t, r, "registrar1", "secret123")
	_ = regID

	// 3. Citizen submits a complaint
	compID, trackingID := submitComplaint(t, r, "ali@example.com")
	_ = compID

	// 4. Public tracking shows Pending and the submission log
	resp := performRequest(r, http.MethodGet, "/api/complaints/track/"+trackingID, nil, "", "")
	if resp.Code != 200 {
		t.Fatalf("track failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var tracked map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &tracked)
	status, _ := tracked["status"].(map[string]any)
	if status["name"] != "Pending" {
		t.Fatalf("expected Pending, got %+v", status)
	}
	if !strings.Contains(resp.Body.String(), "Complaint submitted") {
		t.Fatalf("submission log missing from track payload: %s", resp.Body.String())
	}

	// 5. Unassigned DO sees nothing
	resp = performRequest(r, http.MethodGet, "/api/complaints", nil, doToken, "")
	if resp.Code != 200 {
		t.Fatalf("DO list failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var listing map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &listing)
	if total, _ := listing["total"].(float64); total != 0 {
		t.Fatalf("expected 0 complaints for unassigned DO, got %v", total)
	}

	// 6. Registrar forwards to the DO
	body, _ := json.Marshal(map[string]uint{"userId": doID})
	resp = performRequest(r, http.MethodPatch, complaintPath(compID, "/assign"), bytes.NewBuffer(body), regToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("assign failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 7. DO now sees it, and can open the detail
	resp = performRequest(r, http.MethodGet, "/api/complaints", nil, doToken, "")
	_ = json.Unmarshal(resp.Body.Bytes(), &listing)
	if total, _ := listing["total"].(float64); total != 1 {
		t.Fatalf("expected 1 complaint for DO, got %v", total)
	}
	resp = performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, doToken, "")
	if resp.Code != 200 {
		t.Fatalf("DO detail failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "Forwarded to officer1") {
		t.Fatalf("forward log missing: %s", resp.Body.String())
	}

	// 8. Status changes are registrar-and-up
	body, _ = json.Marshal(map[string]uint{"statusId": 2})
	resp = performRequest(r, http.MethodPatch, complaintPath(compID, "/status"), bytes.NewBuffer(body), doToken, "application/json")
	if resp.Code != 403 {
		t.Fatalf("expected 403 for DO status change, got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodPatch, complaintPath(compID, "/status"), bytes.NewBuffer(body), regToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("status change failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 9. DO leaves an internal remark; the public never sees it
	body, _ = json.Marshal(map[string]string{"comments": "checking with field office", "visibility": "INTERNAL"})
	resp = performRequest(r, http.MethodPost, complaintPath(compID, "/remark"), bytes.NewBuffer(body), doToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("remark failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/api/complaints/track/"+trackingID, nil, "", "")
	if strings.Contains(resp.Body.String(), "checking with field office") {
		t.Fatalf("internal remark leaked to public tracking: %s", resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "Status changed to In Progress") {
		t.Fatalf("status log missing from track payload: %s", resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, regToken, "")
	if !strings.Contains(resp.Body.String(), "checking with field office") {
		t.Fatalf("internal remark missing from staff detail: %s", resp.Body.String())
	}

	// 10. Registrar disposes with a note; complaint closes
	form := url.Values{"note": {"Resolved after meter replacement"}}
	resp = performRequest(r, http.MethodPost, complaintPath(compID, "/dispose"),
		strings.NewReader(form.Encode()), regToken, "application/x-www-form-urlencoded")
	if resp.Code != 200 {
		t.Fatalf("dispose failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/api/complaints/track/"+trackingID, nil, "", "")
	_ = json.Unmarshal(resp.Body.Bytes(), &tracked)
	status, _ = tracked["status"].(map[string]any)
	if status["name"] != "Closed" {
		t.Fatalf("expected Closed after disposal, got %+v", status)
	}
	if tracked["disposal"] == nil {
		t.Fatalf("disposal missing from track payload: %s", resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "Disposed of: Resolved after meter replacement") {
		t.Fatalf("disposal log missing: %s", resp.Body.String())
	}
}

func complaintPath(id uint, suffix string) string {
	return "/api/complaints/" + itoa(id) + suffix
}

func itoa(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestTrackUnknownIDReturnsNull(t *testing.T) {
	r := setupTestServer(t)
	resp := performRequest(r, http.MethodGet, "/api/complaints/track/CMP-NOSUCH", nil, "", "")
	if resp.Code != 200 {
		t.Fatalf("track failed status=%d", resp.Code)
	}
	if strings.TrimSpace(resp.Body.String()) != "null" {
		t.Fatalf("expected null body, got %s", resp.Body.String())
	}
}

func TestDOCannotOpenForeignComplaint(t *testing.T) {
	r := setupTestServer(t)
	adminToken := loginAs(t, r, "admin", "admin123")
	createStaff(t, r, adminToken, "officer2", "secret123", "DO")
	doToken := loginAs(t, r, "officer2", "secret123")

	compID, _ := submitComplaint(t, r, "")

	resp := performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, doToken, "")
	if resp.Code != 403 {
		t.Fatalf("expected 403 for unassigned DO, got %d body=%s", resp.Code, resp.Body.String())
	}
	// admin reads fine
	resp = performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, adminToken, "")
	if resp.Code != 200 {
		t.Fatalf("admin detail failed status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestDisposeRequiresNoteOrFile(t *testing.T) {
	r := setupTestServer(t)
	adminToken := loginAs(t, r, "admin", "admin123")
	compID, _ := submitComplaint(t, r, "")

	form := url.Values{"note": {"   "}}
	resp := performRequest(r, http.MethodPost, complaintPath(compID, "/dispose"),
		strings.NewReader(form.Encode()), adminToken, "application/x-www-form-urlencoded")
	if resp.Code != 400 {
		t.Fatalf("expected 400 for empty dispose, got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestAssignRejectsUnknownUser(t *testing.T) {
	r := setupTestServer(t)
	adminToken := loginAs(t, r, "admin", "admin123")
	compID, _ := submitComplaint(t, r, "")

	body, _ := json.Marshal(map[string]uint{"userId": 9999})
	resp := performRequest(r, http.MethodPatch, complaintPath(compID, "/assign"), bytes.NewBuffer(body), adminToken, "application/json")
	if resp.Code != 400 {
		t.Fatalf("expected 400 for unknown assignee, got %d body=%s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "VALIDATION") {
		t.Fatalf("expected VALIDATION kind, got %s", resp.Body.String())
	}
}

func TestSubmitRejectsBadAttachmentType(t *testing.T) {
	r := setupTestServer(t)

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("firstName", "Ali")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="attachments"; filename="run.exe"`)
	h.Set("Content-Type", "application/x-msdownload")
	p, _ := mw.CreatePart(h)
	_, _ = p.Write([]byte("MZ"))
	_ = mw.Close()

	resp := performRequest(r, http.MethodPost, "/api/complaints", buf, "", mw.FormDataContentType())
	if resp.Code != 400 {
		t.Fatalf("expected 400 for exe attachment, got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestIOMReassignsAndLogs(t *testing.T) {
	r := setupTestServer(t)
	adminToken := loginAs(t, r, "admin", "admin123")
	doID := createStaff(t, r, adminToken, "officer3", "secret123", "DO")
	doToken := loginAs(t, r, "officer3", "secret123")
	compID, _ := submitComplaint(t, r, "")

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("toUserId", itoa(doID))
	_ = mw.WriteField("subject", "Please verify the meter")
	_ = mw.WriteField("bodyHtml", "<p>Verify and report back.</p>")
	_ = mw.Close()
	resp := performRequest(r, http.MethodPost, complaintPath(compID, "/ioms"), buf, adminToken, mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("IOM create failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// recipient now owns the complaint and can read the memo thread
	resp = performRequest(r, http.MethodGet, complaintPath(compID, "/ioms"), nil, doToken, "")
	if resp.Code != 200 {
		t.Fatalf("IOM list failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "Please verify the meter") {
		t.Fatalf("IOM subject missing: %s", resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, doToken, "")
	if !strings.Contains(resp.Body.String(), "IOM sent to officer3: Please verify the meter") {
		t.Fatalf("IOM log missing: %s", resp.Body.String())
	}
}

func TestUserAdministration(t *testing.T) {
	r := setupTestServer(t)
	adminToken := loginAs(t, r, "admin", "admin123")

	// default role and password
	body, _ := json.Marshal(map[string]string{"username": "newbie"})
	resp := performRequest(r, http.MethodPost, "/api/users", bytes.NewBuffer(body), adminToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var created map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	if created["role"] != "DO" {
		t.Fatalf("expected default role DO, got %v", created["role"])
	}
	loginAs(t, r, "newbie", "password123")
	id := itoa(uint(created["id"].(float64)))

	// duplicate username is rejected
	resp = performRequest(r, http.MethodPost, "/api/users", bytes.NewBuffer(body), adminToken, "application/json")
	if resp.Code != 400 {
		t.Fatalf("expected 400 for duplicate username, got %d", resp.Code)
	}

	// rename, then reset password
	upd, _ := json.Marshal(map[string]string{"username": "newbie2", "role": "SR_REGISTRAR"})
	resp = performRequest(r, http.MethodPatch, "/api/users/"+id, bytes.NewBuffer(upd), adminToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("update failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	pw, _ := json.Marshal(map[string]string{"password": "rotated456"})
	resp = performRequest(r, http.MethodPost, "/api/users/"+id+"/reset-password", bytes.NewBuffer(pw), adminToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("reset failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	loginAs(t, r, "newbie2", "rotated456")

	// non-admin cannot manage users
	staffToken := loginAs(t, r, "newbie2", "rotated456")
	resp = performRequest(r, http.MethodPost, "/api/users", bytes.NewBuffer(body), staffToken, "application/json")
	if resp.Code != 403 {
		t.Fatalf("expected 403 for non-admin create, got %d", resp.Code)
	}

	// delete
	resp = performRequest(r, http.MethodDelete, "/api/users/"+id, nil, adminToken, "")
	if resp.Code != 200 {
		t.Fatalf("delete failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodDelete, "/api/users/"+id, nil, adminToken, "")
	if resp.Code != 404 {
		t.Fatalf("expected 404 for deleted user, got %d", resp.Code)
	}
}

func TestExportCSV(t *testing.T) {
	r := setupTestServer(t)
	adminToken := loginAs(t, r, "admin", "admin123")
	_, trackingID := submitComplaint(t, r, "ali@example.com")

	resp := performRequest(r, http.MethodGet, "/api/complaints/export/file", nil, adminToken, "")
	if resp.Code != 200 {
		t.Fatalf("export failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "complaints.csv") {
		t.Fatalf("bad Content-Disposition: %q", cd)
	}
	body := resp.Body.String()
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if lines[0] != "Tracking ID,First Name,Last Name,Email,CNIC,Address,Complaint,Status,Created At" {
		t.Fatalf("bad header line: %q", lines[0])
	}
	if len(lines) != 2 {
		t.Fatalf("expected 1 data row, got %d", len(lines)-1)
	}
	if !strings.Contains(lines[1], `"`+trackingID+`"`) {
		t.Fatalf("tracking id not quoted in row: %q", lines[1])
	}
	// the embedded newline in the complaint text must be collapsed
	if !strings.Contains(lines[1], `"Meter reading is wrong second line"`) {
		t.Fatalf("newline not collapsed: %q", lines[1])
	}
}

func TestStatusCloseWithoutDisposal(t *testing.T) {
	r := setupTestServer(t)
	adminToken := loginAs(t, r, "admin", "admin123")
	compID, _ := submitComplaint(t, r, "")

	body, _ := json.Marshal(map[string]uint{"statusId": 3})
	resp := performRequest(r, http.MethodPatch, complaintPath(compID, "/status"), bytes.NewBuffer(body), adminToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("status change failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// closing via status change does not fabricate a disposal record
	resp = performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, adminToken, "")
	var detail map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &detail)
	status, _ := detail["status"].(map[string]any)
	if status["name"] != "Closed" {
		t.Fatalf("expected Closed, got %+v", status)
	}
	if detail["disposal"] != nil {
		t.Fatalf("expected nil disposal, got %+v", detail["disposal"])
	}
}

func TestRemarkPrefixRoundTrip(t *testing.T) {
	r := setupTestServer(t)
	adminToken := loginAs(t, r, "admin", "admin123")
	compID, trackingID := submitComplaint(t, r, "")

	body, _ := json.Marshal(map[string]string{"comments": "[INTERNAL] pending legal review"})
	resp := performRequest(r, http.MethodPost, complaintPath(compID, "/remark"), bytes.NewBuffer(body), adminToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("remark failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	// the prefix is stripped into the visibility column
	resp = performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, adminToken, "")
	if !strings.Contains(resp.Body.String(), `"comments":"pending legal review"`) {
		t.Fatalf("prefix not stripped: %s", resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/api/complaints/track/"+trackingID, nil, "", "")
	if strings.Contains(resp.Body.String(), "pending legal review") {
		t.Fatalf("internal remark visible publicly: %s", resp.Body.String())
	}

	// no prefix defaults to PUBLIC and keeps the text unchanged
	body, _ = json.Marshal(map[string]string{"comments": "copy sent to complainant"})
	resp = performRequest(r, http.MethodPost, complaintPath(compID, "/remark"), bytes.NewBuffer(body), adminToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("remark failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/api/complaints/track/"+trackingID, nil, "", "")
	if !strings.Contains(resp.Body.String(), "copy sent to complainant") {
		t.Fatalf("public remark missing from tracking: %s", resp.Body.String())
	}
}

func TestReassignAppendsLogs(t *testing.T) {
	r := setupTestServer(t)
	adminToken := loginAs(t, r, "admin", "admin123")
	aID := createStaff(t, r, adminToken, "officerA", "secret123", "DO")
	bID := createStaff(t, r, adminToken, "officerB", "secret123", "DO")
	compID, _ := submitComplaint(t, r, "")

	for _, id := range []uint{aID, bID} {
		body, _ := json.Marshal(map[string]uint{"userId": id})
		resp := performRequest(r, http.MethodPatch, complaintPath(compID, "/assign"), bytes.NewBuffer(body), adminToken, "application/json")
		if resp.Code != 200 {
			t.Fatalf("assign failed status=%d body=%s", resp.Code, resp.Body.String())
		}
	}

	// last assignment wins, both forward entries survive in the trail
	resp := performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, adminToken, "")
	body := resp.Body.String()
	if !strings.Contains(body, `"username":"officerB"`) {
		t.Fatalf("expected officerB assigned: %s", body)
	}
	if !strings.Contains(body, "Forwarded to officerA") || !strings.Contains(body, "Forwarded to officerB") {
		t.Fatalf("expected both forward logs: %s", body)
	}
	bToken := loginAs(t, r, "officerB", "secret123")
	aToken := loginAs(t, r, "officerA", "secret123")
	if resp := performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, bToken, ""); resp.Code != 200 {
		t.Fatalf("current assignee locked out: %d", resp.Code)
	}
	if resp := performRequest(r, http.MethodGet, complaintPath(compID, ""), nil, aToken, ""); resp.Code != 403 {
		t.Fatalf("previous assignee should be 403, got %d", resp.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	r := setupTestServer(t)
	resp := performRequest(r, http.MethodGet, "/api/complaints", nil, "", "")
	if resp.Code != 401 {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodGet, "/api/complaints", nil, "not.a.token", "")
	if resp.Code != 401 {
		t.Fatalf("expected 401 with garbage token, got %d", resp.Code)
	}
}
