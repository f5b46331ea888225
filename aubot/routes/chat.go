package routes

import (
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"net/http"

	"aubot/aubot/config"
	"aubot/aubot/controllers"
	"aubot/aubot/middlewares"
	"aubot/aubot/utils/errs"
	"aubot/aubot/utils/types"

	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /api/chat : multipart form or JSON
		gr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			r.Body = http.MaxBytesReader(w, r.Body, chatBodyLimit(mediaType, cfg.MaxUploadBytes))
			req, err := readChatRequest(r, mediaType)
			if err != nil {
				writeError(w, r, err)
				return
			}
			resp, err := ctrl.Chat(r.Context(), req)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})
	})
	return r
}

func RegenerateRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.RegenerateRequest
			if err := decodeJSON(r, &req); err != nil {
				return nil, 0, err
			}
			resp, err := ctrl.Regenerate(r.Context(), req)
			return resp, http.StatusOK, err
		}))
	})
	return r
}

func ExportRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.ExportRequest
			if err := decodeJSON(r, &req); err != nil {
				return nil, 0, err
			}
			resp, err := ctrl.Export(r.Context(), req)
			return resp, http.StatusOK, err
		}))
	})
	return r
}

// chatBodyLimit leaves room for the other fields around a maximum-size file.
// JSON carries the file as base64, so its limit grows by a third.
func chatBodyLimit(mediaType string, maxUpload int64) int64 {
	const overhead = 1 << 20
	if mediaType == "multipart/form-data" {
		return maxUpload + overhead
	}
	return int64(base64.StdEncoding.EncodedLen(int(maxUpload))) + overhead
}

func readChatRequest(r *http.Request, mediaType string) (types.ChatRequest, error) {
	var req types.ChatRequest
	if mediaType != "multipart/form-data" {
		err := decodeJSON(r, &req)
		return req, err
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return req, bodyError(err)
	}
	defer r.MultipartForm.RemoveAll()

	req.Message = r.FormValue("message")
	req.ConversationID = r.FormValue("conversation_id")
	req.Language = r.FormValue("language")

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, bodyError(err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return req, bodyError(err)
	}
	req.File = &types.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return req, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errs.Validation("request body exceeds %d bytes", tooLarge.Limit)
	}
	return errs.Validation("invalid multipart body: %v", err)
}
