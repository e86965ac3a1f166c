package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/indieinfra/inkwell/server/handler/get"
	"github.com/indieinfra/inkwell/server/handler/post"
	"github.com/indieinfra/inkwell/server/handler/upload"
	"github.com/indieinfra/inkwell/server/middleware"
	"github.com/indieinfra/inkwell/server/state"
)

func StartServer(st *state.InkwellState) {
	mux := http.NewServeMux()

	// Media fetch is the only public route; everything else needs a token.
	mux.Handle("GET /media/{digest}", upload.HandleMediaFetch(st))

	mux.Handle("GET /", middleware.ValidateTokenMiddleware(st.Cfg, get.DispatchGet(st)))
	mux.Handle("POST /", middleware.ValidateTokenMiddleware(st.Cfg, post.DispatchPost(st)))
	mux.Handle("POST /media", middleware.ValidateTokenMiddleware(st.Cfg, upload.HandleMediaUpload(st)))

	bindAddress := fmt.Sprintf("%v:%v", st.Cfg.Server.Address, st.Cfg.Server.Port)
	log.Printf("serving http requests on %q", bindAddress)
	log.Fatal(http.ListenAndServe(bindAddress, mux))
}
