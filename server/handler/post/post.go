package post

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/server/util"
)

func DispatchPost(st *state.InkwellState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentType, ok := util.RequireValidMicropubContentType(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, int64(st.Cfg.Server.Limits.MaxPayloadSize))
		body, err := io.ReadAll(r.Body)
		if err != nil {
			resp.WriteInvalidRequest(w, "Request body too large or unreadable")
			return
		}

		switch contentType {
		case "application/json":
			dispatchJson(st, w, r, body)
		case "application/x-www-form-urlencoded":
			dispatchForm(st, w, r, body)
		}
	}
}

func dispatchJson(st *state.InkwellState, w http.ResponseWriter, r *http.Request, body []byte) {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		resp.WriteInvalidRequest(w, fmt.Errorf("Invalid JSON body: %w", err).Error())
		return
	}

	action := "create"
	if raw, ok := data["action"]; ok {
		s, ok := raw.(string)
		if !ok {
			resp.WriteInvalidRequest(w, "action must be a string")
			return
		}
		action = s
	}

	switch strings.ToLower(action) {
	case "create":
		Create(st, w, r, "application/json", body)
	case "update":
		Update(st, w, r, data)
	case "delete":
		Delete(st, w, r, data, false)
	case "undelete":
		Delete(st, w, r, data, true)
	default:
		resp.WriteInvalidRequest(w, fmt.Sprintf("unknown action %q", action))
	}
}

func dispatchForm(st *state.InkwellState, w http.ResponseWriter, r *http.Request, body []byte) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		resp.WriteInvalidRequest(w, fmt.Errorf("Invalid form body: %w", err).Error())
		return
	}

	action := values.Get("action")
	if action == "" {
		action = "create"
	}

	switch strings.ToLower(action) {
	case "create":
		Create(st, w, r, "application/x-www-form-urlencoded", body)
	case "delete":
		Delete(st, w, r, map[string]any{"url": values.Get("url")}, false)
	case "undelete":
		Delete(st, w, r, map[string]any{"url": values.Get("url")}, true)
	case "update":
		resp.WriteInvalidRequest(w, "Update may only be processed via JSON body")
	default:
		resp.WriteInvalidRequest(w, fmt.Sprintf("unknown action %q", action))
	}
}
