package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/storepeek/internal/logger"
)

// jpegStub is served for images when the data directory has none.
var jpegStub = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0xFF, 0xD9}

type fixtures struct {
	dir string
	log zerolog.Logger
}

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "internal/feed/testdata", "directory holding the xml fixtures")
		logReqs = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	level := "info"
	if *logReqs {
		level = "debug"
	}
	log := logger.New(logger.Options{Level: level, Format: "console", Service: "catalog-mock"})

	if _, err := os.Stat(*data); err != nil {
		log.Fatal().Err(err).Msg("read fixture directory")
	}
	fx := fixtures{dir: *data, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v9/catalog/apps/{id}", func(w http.ResponseWriter, r *http.Request) {
		fx.serveXML(w, r, r.PathValue("id")+".xml", "metadata.xml")
	})
	mux.HandleFunc("GET /v9/catalog/apps", func(w http.ResponseWriter, r *http.Request) {
		fx.serveXML(w, r, "search.xml")
	})
	mux.HandleFunc("GET /v9/catalog/hubs", func(w http.ResponseWriter, r *http.Request) {
		fx.serveXML(w, r, "spotlight_"+r.URL.Query().Get("hub")+".xml", "spotlight.xml")
	})
	mux.HandleFunc("GET /v9/ratings/product/{id}/reviews", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("afterMarker") != "" {
			fx.serveXML(w, r, "reviews_last_page.xml")
			return
		}
		fx.serveXML(w, r, "reviews.xml")
	})
	mux.HandleFunc("GET /v8/images/{id}", func(w http.ResponseWriter, r *http.Request) {
		body, err := os.ReadFile(filepath.Join(fx.dir, "images", filepath.Base(r.PathValue("id"))+".jpg"))
		if err != nil {
			body = jpegStub
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(body)
	})

	addr := ":" + *port
	log.Info().Str("addr", addr).Str("data", *data).Msg("mock catalog listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// serveXML writes the first fixture that exists, gzip encoded when the client
// accepts it.
func (fx fixtures) serveXML(w http.ResponseWriter, r *http.Request, names ...string) {
	var (
		body []byte
		err  error
	)
	for _, name := range names {
		body, err = os.ReadFile(filepath.Join(fx.dir, filepath.Base(name)))
		if err == nil {
			break
		}
	}
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	fx.log.Debug().Str("path", r.URL.Path).Str("query", r.URL.RawQuery).Msg("fixture served")

	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		_, _ = w.Write(body)
		return
	}
	w.Header().Set("Content-Encoding", "gzip")
	gz := gzip.NewWriter(w)
	defer gz.Close()
	_, _ = gz.Write(body)
}
