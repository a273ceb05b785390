package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/menta2k/labelkit/pkg/labels"
	"github.com/menta2k/labelkit/pkg/types"
)

type sessionView struct {
	ID      string              `json:"id"`
	Options labels.Options      `json:"options"`
	Files   []types.LabeledFile `json:"files"`
	Summary string              `json:"summary"`
	Report  *labels.Report      `json:"report,omitempty"`
}

func viewOf(sess *labels.Session, report *labels.Report) sessionView {
	return sessionView{
		ID:      sess.ID,
		Options: sess.Workspace.Options(),
		Files:   sess.Workspace.Files(),
		Summary: sess.Workspace.Summary(),
		Report:  report,
	}
}

func sessionNotFound(id string) error {
	return fmt.Errorf("%w: session %s", errNotFound, id)
}

func (s *Server) session(c *gin.Context) (*labels.Session, bool) {
	id := c.Param("id")
	sess, ok := s.deps.Sessions.Get(id)
	if !ok {
		fail(c, sessionNotFound(id))
	}
	return sess, ok
}

// applyOptions changes the languages and provider of a workspace. A missing language keeps
// its current value.
func applyOptions(ws *labels.Workspace, next labels.Options) (bool, error) {
	cur := ws.Options()
	if next.Source != "" || next.Target != "" {
		if next.Source == "" {
			next.Source = cur.Source
		}
		if next.Target == "" {
			next.Target = cur.Target
		}
		if next.Source != cur.Source || next.Target != cur.Target {
			if err := ws.SetLanguages(next.Source, next.Target); err != nil {
				return false, err
			}
		}
	}
	return ws.SetService(next.Service), nil
}

// createSession opens a workspace. A multipart body may carry files and the
// source_lang, target_lang and service fields.
func (s *Server) createSession(c *gin.Context) {
	var opts labels.Options
	var uploads []types.Upload
	if isMultipart(c) {
		var err error
		if uploads, err = formUploads(c, "files"); err != nil {
			fail(c, err)
			return
		}
		opts = labels.Options{
			Source:  c.PostForm("source_lang"),
			Target:  c.PostForm("target_lang"),
			Service: c.PostForm("service"),
		}
	} else if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}

	sess := s.deps.Sessions.Create(s.deps.LabelDefaults)
	if _, err := applyOptions(sess.Workspace, opts); err != nil {
		s.deps.Sessions.Delete(sess.ID)
		fail(c, err)
		return
	}

	var report *labels.Report
	if len(uploads) > 0 {
		r, err := sess.Workspace.Load(c.Request.Context(), uploads, s.progress.publisher(sess.ID))
		if err != nil {
			s.deps.Sessions.Delete(sess.ID)
			fail(c, err)
			return
		}
		report = &r
	}
	c.JSON(http.StatusCreated, viewOf(sess, report))
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(sess, nil))
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if !s.deps.Sessions.Delete(id) {
		fail(c, sessionNotFound(id))
		return
	}
	s.progress.closeSession(id)
	c.Status(http.StatusNoContent)
}

// loadSessionFiles replaces the files of a session and translates their captions
func (s *Server) loadSessionFiles(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	uploads, err := formUploads(c, "files")
	if err != nil {
		fail(c, err)
		return
	}
	report, err := sess.Workspace.Load(c.Request.Context(), uploads, s.progress.publisher(sess.ID))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess, &report))
}

func (s *Server) updateSessionFile(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	name := strings.TrimPrefix(c.Param("name"), "/")
	f, err := sess.Workspace.UpdateText(c.Request.Context(), name, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) batchSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var op labels.BatchOp
	if err := c.ShouldBindJSON(&op); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	report, err := sess.Workspace.Batch(c.Request.Context(), op, s.progress.publisher(sess.ID))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess, &report))
}

func (s *Server) sessionOptions(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var next labels.Options
	if err := c.ShouldBindJSON(&next); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	changed, err := applyOptions(sess.Workspace, next)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": sess.Workspace.Options(), "service_changed": changed})
}

func (s *Server) exportSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := sess.Workspace.Export(&buf); err != nil {
		fail(c, err)
		return
	}
	attachment(c, labels.ExportName, "application/zip", buf.Bytes())
}
