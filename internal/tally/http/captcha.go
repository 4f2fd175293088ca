package http

import (
	"net/http"

	"github.com/morninghq/tally/internal/tally/service"
	"github.com/morninghq/tally/pkg/httpx"
	"github.com/morninghq/tally/pkg/slogx"
)

type CaptchaHandler struct {
	VerificationService *service.VerificationService
}

// HandleJSON issues a captcha and returns the id plus inline SVG markup.
func (h *CaptchaHandler) HandleJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	c, err := h.VerificationService.IssueCaptcha(ctx)
	if err != nil {
		log.Error("failed to issue captcha", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Could not create captcha")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, captchaResponse{
		ID:  c.ID,
		SVG: service.RenderCaptchaSVG(c.Code),
	})
}

// HandleSVG issues a captcha and returns the raw image, with the challenge
// id in the X-Captcha-Id header.
func (h *CaptchaHandler) HandleSVG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	c, err := h.VerificationService.IssueCaptcha(ctx)
	if err != nil {
		log.Error("failed to issue captcha", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Could not create captcha")
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("X-Captcha-Id", c.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(service.RenderCaptchaSVG(c.Code)))
}
