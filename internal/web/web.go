package web

import (
    "bytes"
    "fmt"
    "html/template"
    "io"
    "mime/multipart"
    "net/http"
    "os"
    "path/filepath"
    "sort"

    "github.com/local/florenceapi/internal/task"
)

type Web struct {
    tpl      *template.Template
    username string
    password string
    port     string
}

func New() *Web {
    // load templates
    tpl := template.Must(template.ParseGlob(filepath.Join("web", "templates", "*.html")))
    return &Web{
        tpl:      tpl,
        username: os.Getenv("WEB_USERNAME"),
        password: os.Getenv("WEB_PASSWORD"),
        port:     getenv("PORT", "8080"),
    }
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/web/login", w.handleLogin)
    mux.HandleFunc("/web/logout", w.handleLogout)
    mux.HandleFunc("/web/", w.requireAuth(w.handleDashboard))
    mux.HandleFunc("/web/dashboard", w.requireAuth(w.handleDashboard))
    mux.HandleFunc("/web/predict", w.requireAuth(w.handlePredict))
}

func (w *Web) render(wr http.ResponseWriter, name string, data any) {
    _ = w.tpl.ExecuteTemplate(wr, name, data)
}

func (w *Web) requireAuth(next http.HandlerFunc) http.HandlerFunc {
    return func(wr http.ResponseWriter, r *http.Request) {
        if w.username == "" || w.password == "" {
            http.Error(wr, "WEB_USERNAME/WEB_PASSWORD not set", http.StatusForbidden)
            return
        }
        c, err := r.Cookie("auth")
        if err != nil || c.Value != "1" {
            http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
            return
        }
        next(wr, r)
    }
}

func (w *Web) handleLogin(wr http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        w.render(wr, "login.html", map[string]any{"Error": r.URL.Query().Get("error")})
    case http.MethodPost:
        if err := r.ParseForm(); err != nil { http.Redirect(wr, r, "/web/login?error=invalid+form", http.StatusSeeOther); return }
        if r.Form.Get("username") == w.username && r.Form.Get("password") == w.password {
            http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "1", Path: "/", HttpOnly: true})
            http.Redirect(wr, r, "/web/dashboard", http.StatusSeeOther)
            return
        }
        http.Redirect(wr, r, "/web/login?error=invalid+credentials", http.StatusSeeOther)
    default:
        wr.WriteHeader(http.StatusMethodNotAllowed)
    }
}

func (w *Web) handleLogout(wr http.ResponseWriter, r *http.Request) {
    http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "", Path: "/", MaxAge: -1})
    http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
}

func (w *Web) handleDashboard(wr http.ResponseWriter, r *http.Request) {
    ids := task.All()
    type taskRow struct {
        ID          string
        Description string
    }
    rows := make([]taskRow, 0, len(ids))
    for _, id := range ids {
        rows = append(rows, taskRow{ID: id, Description: task.Describe(id)})
    }
    sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
    w.render(wr, "dashboard.html", map[string]any{
        "Username": w.username,
        "Tasks":    rows,
    })
}

// handlePredict proxies a multipart upload from the dashboard to the API
// endpoint /predict, forcing inline artifacts so the browser can render them
// without storage credentials.
func (w *Web) handlePredict(wr http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { wr.WriteHeader(http.StatusMethodNotAllowed); return }
    if err := r.ParseMultipartForm(64 << 20); err != nil { http.Error(wr, "invalid multipart form", 400); return }

    var b bytes.Buffer
    mw := multipart.NewWriter(&b)

    file, hdr, err := r.FormFile("file")
    if err != nil { http.Error(wr, "missing file", 400); return }
    defer file.Close()
    fw, err := mw.CreateFormFile("file", hdr.Filename)
    if err != nil { http.Error(wr, "upload error", 500); return }
    if _, err := io.Copy(fw, file); err != nil { http.Error(wr, "upload error", 500); return }

    for _, k := range []string{"task", "text_input"} {
        if v := r.FormValue(k); v != "" {
            _ = mw.WriteField(k, v)
        }
    }
    _ = mw.WriteField("persist", "false")
    _ = mw.Close()

    url := fmt.Sprintf("http://127.0.0.1:%s/predict", w.port)
    req, _ := http.NewRequest(http.MethodPost, url, &b)
    req.Header.Set("Content-Type", mw.FormDataContentType())
    resp, err := http.DefaultClient.Do(req)
    if err != nil { http.Error(wr, "request failed", 500); return }
    defer resp.Body.Close()
    wr.Header().Set("Content-Type", "application/json")
    wr.WriteHeader(resp.StatusCode)
    io.Copy(wr, resp.Body)
}

func getenv(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
