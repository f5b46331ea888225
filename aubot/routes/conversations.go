package routes

import (
	"mime"
	"net/http"
	"strconv"

	"aubot/aubot/config"
	"aubot/aubot/controllers"
	"aubot/aubot/middlewares"
	"aubot/aubot/utils/types"

	"github.com/go-chi/chi/v5"
)

func ConversationRoutes(ctrl *controllers.ConversationController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			return ctrl.ListConversations(r.Context()), http.StatusOK, nil
		}))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.CreateConversationRequest
			// an empty body creates an untitled conversation
			if r.ContentLength != 0 {
				if err := decodeJSON(r, &req); err != nil {
					return nil, 0, err
				}
			}
			return ctrl.CreateConversation(r.Context(), req.Title), http.StatusCreated, nil
		}))

		gr.Get("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			conv, err := ctrl.GetConversation(r.Context(), chi.URLParam(r, "id"))
			return conv, http.StatusOK, err
		}))

		gr.Patch("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.RenameConversationRequest
			if err := decodeJSON(r, &req); err != nil {
				return nil, 0, err
			}
			conv, err := ctrl.RenameConversation(r.Context(), chi.URLParam(r, "id"), req.Title)
			return conv, http.StatusOK, err
		}))

		gr.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			if err := ctrl.DeleteConversation(r.Context(), chi.URLParam(r, "id")); err != nil {
				return nil, 0, err
			}
			return success(nil), http.StatusOK, nil
		}))
	})
	return r
}

func MessageRoutes(convCtrl *controllers.ConversationController, chatCtrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Put("/{conv_id}/{msg_id}", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.EditMessageRequest
			if err := decodeJSON(r, &req); err != nil {
				return nil, 0, err
			}
			msg, err := convCtrl.EditMessage(r.Context(), chi.URLParam(r, "conv_id"), chi.URLParam(r, "msg_id"), req.Content)
			if err != nil {
				return nil, 0, err
			}
			return success(map[string]any{"message": msg}), http.StatusOK, nil
		}))

		gr.Delete("/{conv_id}/{msg_id}", handleJSON(func(r *http.Request) (any, int, error) {
			if err := convCtrl.DeleteMessage(r.Context(), chi.URLParam(r, "conv_id"), chi.URLParam(r, "msg_id")); err != nil {
				return nil, 0, err
			}
			return success(nil), http.StatusOK, nil
		}))

		gr.Get("/{conv_id}/{msg_id}/attachment", func(w http.ResponseWriter, r *http.Request) {
			a, data, err := chatCtrl.Attachment(r.Context(), chi.URLParam(r, "conv_id"), chi.URLParam(r, "msg_id"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			w.Header().Set("Content-Type", a.MIMEType)
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
			w.WriteHeader(http.StatusOK)
			w.Write(data)
		})
	})
	return r
}
