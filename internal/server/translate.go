package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menta2k/labelkit/pkg/translate"
)

func (s *Server) translate(c *gin.Context) {
	req := translate.Request{
		SourceLang: translate.Auto,
		TargetLang: "en",
		Service:    "google",
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if req.Text == "" {
		c.JSON(http.StatusOK, translate.Response{TranslatedText: ""})
		return
	}
	if err := translate.ValidateLanguages(req.SourceLang, req.TargetLang); err != nil {
		fail(c, err)
		return
	}

	out, err := s.deps.Translator.Translate(c.Request.Context(), req.Text, req.SourceLang, req.TargetLang, req.Service)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, translate.Response{Success: true, TranslatedText: out})
}

func (s *Server) services(c *gin.Context) {
	c.JSON(http.StatusOK, translate.ServicesResponse{Services: s.deps.Translator.Services()})
}

func (s *Server) languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": translate.Languages()})
}
