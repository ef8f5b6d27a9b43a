package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"travelops/internal/app"
	"travelops/internal/extract"
	"travelops/internal/planner"
)

type response struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type planRequest struct {
	City      string `json:"city"`
	Start     string `json:"start"`
	Days      int    `json:"days"`
	UserName  string `json:"user_name"`
	Vibe      string `json:"vibe"`
	Fast      bool   `json:"fast"`
	Email     string `json:"email"`
	ExportPDF bool   `json:"export_pdf"`
}

type planResponse struct {
	Itinerary string   `json:"itinerary"`
	Validated bool     `json:"validated"`
	Country   string   `json:"country"`
	Season    string   `json:"season"`
	Dates     []string `json:"dates"`
	Places    []string `json:"places"`
	Emailed   bool     `json:"emailed"`
	Download  string   `json:"download,omitempty"`
	RemoteURI string   `json:"remote_uri,omitempty"`
}

func respond(c *gin.Context, code int, data any) {
	c.JSON(code, response{Status: "success", RequestID: c.GetString(requestIDKey), Data: data})
}

func respondError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, response{Status: "error", Message: message, RequestID: c.GetString(requestIDKey)})
}

func handleError(c *gin.Context, err error) {
	if app.IsInputError(err) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("Request failed", "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "error", err)
	respondError(c, http.StatusInternalServerError, "internal server error")
}

func (s *Server) health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) history(c *gin.Context) {
	entries, err := s.backend.History(c.Request.Context(), c.Query("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, entries)
}

type exportsResponse struct {
	Local  []string `json:"local"`
	Remote []string `json:"remote"`
}

func (s *Server) exports(c *gin.Context) {
	list, err := s.backend.Exports(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	out := exportsResponse{Local: []string{}, Remote: []string{}}
	out.Local = append(out.Local, list.Local...)
	out.Remote = append(out.Remote, list.Remote...)
	respond(c, http.StatusOK, out)
}

func (s *Server) summarize(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MiB", s.maxUpload>>20))
			return
		}
		respondError(c, http.StatusBadRequest, "missing file")
		return
	}
	if !extract.Supported(header.Filename) {
		respondError(c, http.StatusBadRequest, "unsupported file type, allowed: "+strings.Join(extract.AllowedExtensions(), ", "))
		return
	}

	f, err := header.Open()
	if err != nil {
		handleError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer func() { _ = f.Close() }()

	path, err := s.storage.SaveUpload(header.Filename, f)
	if err != nil {
		handleError(c, err)
		return
	}
	defer func() { _ = os.Remove(path) }()

	res, err := s.backend.Summarize(c.Request.Context(), app.SummarizeRequest{
		Path:  path,
		Email: c.PostForm("email"),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"summary": res.Summary, "emailed": res.Emailed})
}

func (s *Server) plan(c *gin.Context) {
	var body planRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.City) == "" || strings.TrimSpace(body.Start) == "" {
		respondError(c, http.StatusBadRequest, "city and start are required")
		return
	}
	if body.Days < 1 || body.Days > s.maxDays {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", s.maxDays))
		return
	}

	req := app.PlanRequest{
		Request: planner.Request{
			City:      body.City,
			StartDate: body.Start,
			Days:      body.Days,
			UserName:  body.UserName,
			Vibe:      body.Vibe,
			Fast:      body.Fast,
		},
		Email: body.Email,
	}

	if !body.ExportPDF {
		res, err := s.backend.Plan(c.Request.Context(), req)
		if err != nil {
			handleError(c, err)
			return
		}
		out := newPlanResponse(res.Plan)
		out.Emailed = res.Emailed
		respond(c, http.StatusOK, out)
		return
	}

	res, err := s.backend.ExportPDF(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	out := newPlanResponse(res.Plan)
	out.Emailed = res.Emailed
	out.Download = "/download/" + filepath.Base(res.PDFPath)
	out.RemoteURI = res.RemoteURI
	respond(c, http.StatusOK, out)
}

func (s *Server) download(c *gin.Context) {
	name := c.Param("filename")
	path, err := s.storage.ExportPath(name)
	if err != nil {
		handleError(c, err)
		return
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && s.fetcher != nil {
		if err := s.fetcher.Download(c.Request.Context(), name, path); err != nil && !errors.Is(err, os.ErrNotExist) {
			handleError(c, err)
			return
		}
	}

	if _, err := os.Stat(path); err != nil {
		respondError(c, http.StatusNotFound, "file not found")
		return
	}
	c.FileAttachment(path, name)
}

func newPlanResponse(plan *planner.Plan) planResponse {
	out := planResponse{
		Itinerary: plan.Itinerary,
		Validated: plan.Validated,
		Season:    plan.Season.Label,
		Dates:     plan.Dates,
		Places:    plan.Allowed,
	}
	if plan.City != nil {
		out.Country = plan.City.Country
	}
	return out
}
