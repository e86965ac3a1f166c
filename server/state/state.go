package state

import (
	"github.com/indieinfra/inkwell/config"
	"github.com/indieinfra/inkwell/storage/media"
	"github.com/indieinfra/inkwell/storage/mirror"
	"github.com/indieinfra/inkwell/storage/posts"
)

type InkwellState struct {
	Cfg    *config.Config
	Posts  posts.Store
	Media  media.Store
	Mirror mirror.Mirror
}
