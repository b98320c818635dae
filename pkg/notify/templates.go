package notify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Built-in message bodies. Placeholders like {trackingId} are substituted
// at render time. An operator can override any of them by dropping
// <name>.txt files into the directory passed to NewTemplateStore.
var defaultTemplates = map[string]string{
	"complaint-submitted": "Your complaint has been submitted. Tracking ID: {trackingId}",
	"complaint-forwarded": "Your complaint {trackingId} has been forwarded internally for further processing. Please visit {baseUrl}/track",
	"status-updated":      "Your complaint {trackingId} status has been updated to {statusName}. Please visit {baseUrl}/track",
	"remark-added":        "A new remark has been added on your complaint {trackingId}. Please visit {baseUrl}/track",
	"disposed":            "Your complaint {trackingId} has been disposed of. Please visit {baseUrl}/track",
	"disposed-with-file":  "Your complaint {trackingId} has been disposed of. The final decision document is now available on the tracking portal. Please visit {baseUrl}/track",
	"new-complaint-staff": "A new complaint has been submitted in the complaint portal.\n\nTracking ID: {trackingId}\nComplainant: {complainantName}\nComplainant Email: {complainantEmail}\n\nPlease log in to the portal to review and process this complaint.",
	"assigned-staff":      "A complaint has been assigned/forwarded to you in the complaint portal.\n\nTracking ID: {trackingId}\nComplainant: {complainantName}\nComplainant Email: {complainantEmail}\n\nPlease log in to the portal to review and take further action.",
	"iom-assigned":        "An IOM has been assigned to you.\n\nSubject: {subject}",
}

// TemplateStore resolves notification bodies by name. When an override
// directory is configured it is loaded at startup and re-loaded whenever a
// file in it changes, so template edits do not require a restart.
type TemplateStore struct {
	mu      sync.RWMutex
	bodies  map[string]string
	dir     string
	log     *zap.SugaredLogger
	watcher *fsnotify.Watcher
}

// NewTemplateStore builds a store seeded with the built-in templates.
// dir may be empty; if set, *.txt files in it override by base name.
func NewTemplateStore(dir string, log *zap.SugaredLogger) *TemplateStore {
	s := &TemplateStore{
		bodies: make(map[string]string, len(defaultTemplates)),
		dir:    dir,
		log:    log,
	}
	s.reload()
	if dir != "" {
		s.watch()
	}
	return s
}

// Render substitutes {key} placeholders from vars into the named template.
// Unknown names render as an empty body.
func (s *TemplateStore) Render(name string, vars map[string]string) string {
	s.mu.RLock()
	body := s.bodies[name]
	s.mu.RUnlock()
	for k, v := range vars {
		body = strings.ReplaceAll(body, "{"+k+"}", v)
	}
	return body
}

// Close stops the override watcher, if any.
func (s *TemplateStore) Close() {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
}

func (s *TemplateStore) reload() {
	next := make(map[string]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		next[k] = v
	}
	if s.dir != "" {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			s.log.Warnf("template dir %s unreadable: %v", s.dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
			if err != nil {
				s.log.Warnf("template %s unreadable: %v", e.Name(), err)
				continue
			}
			name := strings.TrimSuffix(e.Name(), ".txt")
			next[name] = strings.TrimRight(string(raw), "\n")
		}
	}
	s.mu.Lock()
	s.bodies = next
	s.mu.Unlock()
}

func (s *TemplateStore) watch() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warnf("template watcher unavailable: %v", err)
		return
	}
	if err := w.Add(s.dir); err != nil {
		s.log.Warnf("cannot watch template dir %s: %v", s.dir, err)
		_ = w.Close()
		return
	}
	s.watcher = w
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					s.reload()
					s.log.Infof("notification templates reloaded after %s", ev.Name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warnf("template watcher error: %v", err)
			}
		}
	}()
}
