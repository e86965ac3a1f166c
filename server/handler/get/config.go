package get

import (
	"fmt"
	"net/http"

	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/state"
)

type Service struct {
	Name  string `json:"name"`
	Url   string `json:"url"`
	Photo string `json:"photo"`
}

type SyndicateTo struct {
	Uid     string  `json:"uid"`
	Name    string  `json:"name"`
	Service Service `json:"service"`
}

type Config struct {
	MediaEndpoint string        `json:"media-endpoint"`
	SyndicateTo   []SyndicateTo `json:"syndicate-to"`
}

func HandleConfig(st *state.InkwellState, w http.ResponseWriter, r *http.Request) {
	resp.WriteOK(w, Config{
		MediaEndpoint: fmt.Sprintf("%v/media", st.Cfg.Server.PublicUrl),
		SyndicateTo:   []SyndicateTo{},
	})
}
