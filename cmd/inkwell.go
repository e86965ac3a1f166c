package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/indieinfra/inkwell/config"
	"github.com/indieinfra/inkwell/server"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/storage/media"
	"github.com/indieinfra/inkwell/storage/mirror"
	"github.com/indieinfra/inkwell/storage/posts"
)

func main() {
	log.SetPrefix("inkwell: ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile | log.Lmsgprefix)

	configFile := flag.String("config", "config.yml", "Path to the configuration file (i.e., /etc/inkwell.yaml)")
	flag.Parse()

	if len(strings.Trim(*configFile, " ")) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	log.Println("loading configuration...")
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Printf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	st, err := buildState(cfg)
	if err != nil {
		log.Printf("failed to initialize storage: %v", err)
		os.Exit(1)
	}

	log.Println("starting http server...")
	server.StartServer(st)
}

func buildState(cfg *config.Config) (*state.InkwellState, error) {
	postStore, err := posts.NewSQLStore(cfg.Content.Sql)
	if err != nil {
		return nil, err
	}

	var mediaStore media.Store = &media.NoopMediaStore{}
	if cfg.Media.Strategy == "s3" {
		mediaStore, err = media.NewS3MediaStore(&cfg.Media)
		if err != nil {
			return nil, err
		}
	}

	var contentMirror mirror.Mirror = &mirror.NoopMirror{}
	if cfg.Mirror.Strategy == "git" {
		contentMirror, err = mirror.NewGitMirror(cfg.Mirror.Git)
		if err != nil {
			return nil, err
		}
	}

	return &state.InkwellState{
		Cfg:    cfg,
		Posts:  postStore,
		Media:  mediaStore,
		Mirror: contentMirror,
	}, nil
}
