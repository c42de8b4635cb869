package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/aiox-platform/roverchat/internal/api"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	v := validator.New()
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &Handler{
		svc:      svc,
		validate: v,
	}
}

// Chat handles POST /chat. Replies and errors are plain text.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := decodeRequest(r.Body, &req); err != nil {
		api.HandleTextError(w, api.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleTextError(w, api.ErrInvalidRequest)
		return
	}

	reply, err := h.svc.Answer(r.Context(), req)
	if err != nil {
		if isRateLimited(err) {
			api.HandleTextError(w, api.ErrRateLimited)
			return
		}
		api.HandleTextError(w, api.ErrInternalServer)
		return
	}

	api.Text(w, http.StatusOK, reply)
}

// decodeRequest reads exactly one JSON object from body.
func decodeRequest(body io.Reader, req *Request) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(req); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after request object")
	}
	return nil
}
