package main

import (
	"html/template"
	"net/http"
	"os"
	"strings"

	"questionforge"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

// Server serves the downstream human-audit queue: pending items are listed,
// opened one at a time, and approved or rejected by a named reviewer.
type Server struct {
	store     *questionforge.ItemStore
	sessions  *sessions.CookieStore
	templates map[string]*template.Template
	log       zerolog.Logger
}

func main() {
	cfg := questionforge.LoadConfig()
	log := questionforge.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	store, err := questionforge.OpenItemStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open item store")
	}
	defer store.Close()
	if err := store.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "dev-only-review-secret"
		log.Warn().Msg("SESSION_SECRET not set, using dev default")
	}

	server := &Server{
		store:     store,
		sessions:  sessions.NewCookieStore([]byte(secret)),
		templates: loadTemplates(),
		log:       log,
	}

	http.HandleFunc("/", server.handleQueue)
	http.HandleFunc("/login", server.handleLogin)
	http.HandleFunc("/item/", server.handleItem)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Info().Str("port", port).Msg("starting review server")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func (s *Server) reviewer(r *http.Request) string {
	session, _ := s.sessions.Get(r, "review-session")
	if name, ok := session.Values["reviewer"].(string); ok {
		return name
	}
	return ""
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	reviewer := s.reviewer(r)
	if reviewer == "" {
		if err := s.templates["login"].Execute(w, nil); err != nil {
			s.log.Error().Err(err).Msg("template error in login")
		}
		return
	}

	pending, err := s.store.ListItems("pending", 100)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list pending items")
		http.Error(w, "Failed to list items", http.StatusInternalServerError)
		return
	}
	approved, _ := s.store.CountByStatus("approved")
	rejected, _ := s.store.CountByStatus("rejected")

	err = s.templates["queue"].Execute(w, map[string]interface{}{
		"Reviewer": reviewer,
		"Pending":  pending,
		"Approved": approved,
		"Rejected": rejected,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("template error in queue")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("reviewer"))
	if name == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	session, _ := s.sessions.Get(r, "review-session")
	session.Values["reviewer"] = name
	if err := session.Save(r, w); err != nil {
		s.log.Error().Err(err).Msg("failed to save session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	reviewer := s.reviewer(r)
	if reviewer == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/item/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		verdict := r.FormValue("verdict")
		if verdict != "approved" && verdict != "rejected" {
			http.Error(w, "Unknown verdict", http.StatusBadRequest)
			return
		}
		if err := s.store.SetReviewStatus(id, verdict); err != nil {
			s.log.Error().Err(err).Str("item_id", id).Msg("failed to update review status")
			http.Error(w, "Failed to update item", http.StatusInternalServerError)
			return
		}
		s.log.Info().Str("item_id", id).Str("verdict", verdict).Str("reviewer", reviewer).Msg("item reviewed")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	item, err := s.store.GetItem(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	options, err := questionforge.JSONToOptions(item.Options)
	if err != nil {
		s.log.Error().Err(err).Str("item_id", id).Msg("corrupt options payload")
		http.Error(w, "Corrupt item", http.StatusInternalServerError)
		return
	}

	err = s.templates["item"].Execute(w, map[string]interface{}{
		"Reviewer": reviewer,
		"Item":     item,
		"Options":  options,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("template error in item")
	}
}

func loadTemplates() map[string]*template.Template {
	return map[string]*template.Template{
		"login": template.Must(template.New("login").Parse(loginHTML)),
		"queue": template.Must(template.New("queue").Parse(queueHTML)),
		"item":  template.Must(template.New("item").Parse(itemHTML)),
	}
}

const loginHTML = `<!DOCTYPE html>
<html><head><title>Item Review</title></head><body>
<h1>Item Review</h1>
<form method="POST" action="/login">
  <label>Reviewer name: <input name="reviewer" autofocus></label>
  <button type="submit">Start reviewing</button>
</form>
</body></html>`

const queueHTML = `<!DOCTYPE html>
<html><head><title>Review Queue</title></head><body>
<h1>Review Queue</h1>
<p>Reviewer: {{.Reviewer}} &middot; approved {{.Approved}} &middot; rejected {{.Rejected}}</p>
{{if .Pending}}
<table border="1" cellpadding="6">
  <tr><th>Sub-skill</th><th>Difficulty</th><th>Question</th><th></th></tr>
  {{range .Pending}}
  <tr>
    <td>{{.SubSkill}}</td>
    <td>{{.Difficulty}}</td>
    <td>{{.Text}}</td>
    <td><a href="/item/{{.ID}}">review</a></td>
  </tr>
  {{end}}
</table>
{{else}}
<p>No pending items. Run a generation batch first.</p>
{{end}}
</body></html>`

const itemHTML = `<!DOCTYPE html>
<html><head><title>Review Item</title></head><body>
<p><a href="/">&larr; back to queue</a></p>
<h1>{{.Item.SubSkill}} (difficulty {{.Item.Difficulty}})</h1>
{{if .Item.PassageText}}<blockquote>{{.Item.PassageText}}</blockquote>{{end}}
<p>{{.Item.Text}}</p>
<ol type="A">
  {{range .Options}}<li>{{.}}</li>{{end}}
</ol>
<p><strong>Correct answer:</strong> {{.Item.CorrectAnswer}}</p>
<p><strong>Solution:</strong> {{.Item.Solution}}</p>
<form method="POST">
  <button name="verdict" value="approved">Approve</button>
  <button name="verdict" value="rejected">Reject</button>
</form>
</body></html>`
