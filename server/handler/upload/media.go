package upload

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/gosimple/slug"

	"github.com/indieinfra/inkwell/server/auth"
	"github.com/indieinfra/inkwell/server/handler/common"
	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/server/util"
	"github.com/indieinfra/inkwell/storage/posts"
	storageutil "github.com/indieinfra/inkwell/storage/util"
)

func HandleMediaUpload(st *state.InkwellState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.RequestHasScope(r, auth.ScopeMedia) {
			resp.WriteInsufficientScope(w, "no media scope")
			return
		}

		if _, ok := util.RequireValidMediaContentType(w, r); !ok {
			return
		}

		maxFileSize := int64(st.Cfg.Server.Limits.MaxFileSize)
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize)
		if err := r.ParseMultipartForm(maxFileSize); err != nil {
			resp.WriteInvalidRequest(w, fmt.Errorf("Invalid multipart body: %w", err).Error())
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.WriteInvalidRequest(w, "multipart body must carry a \"file\" part")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			common.LogAndWriteError(w, r, "upload media", err)
			return
		}

		// Content-addressed key: re-uploads of the same bytes dedupe for free.
		digest := sha256.Sum256(data)
		key := hex.EncodeToString(digest[:])

		contentType := header.Header.Get("Content-Type")
		if err := st.Media.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			common.LogAndWriteError(w, r, "upload media", err)
			return
		}

		record := posts.MediaUpload{HexDigest: key}
		if header.Filename != "" {
			safeName := slug.Make(header.Filename)
			record.Filename = &safeName
		}
		if contentType != "" {
			record.ContentType = &contentType
		}

		if err := st.Posts.RecordMediaUpload(r.Context(), record); err != nil {
			common.LogAndWriteError(w, r, "upload media", err)
			return
		}

		resp.WriteCreated(w, storageutil.NormalizeBaseURL(st.Cfg.Server.PublicUrl)+"media/"+key)
	}
}
