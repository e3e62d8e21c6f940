// Package server answers nanoparticle spectrum requests over websockets.
//
// A client connects to /ws and sends JSON requests of the form
//
//	{"id": "...", "particle": {...}, "options": {...}}
//
// where particle and options use the field names of the [particle] and
// [spectrum] configuration sections. Missing fields take the server's
// defaults. Every request is answered, in order, with a Response.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kovidgoyal/npspec"
	"github.com/kovidgoyal/npspec/archive"
	"github.com/kovidgoyal/npspec/colorimetry"
	"github.com/kovidgoyal/npspec/config"
	"github.com/kovidgoyal/npspec/material"
	"github.com/kovidgoyal/npspec/nanoparticle"
)

var _ = fmt.Print

// BadRequest is the status of requests that could not be decoded or that
// hold a setting outside its domain.
const BadRequest npspec.ErrorCode = -100

// Request asks for the spectra of one particle.
type Request struct {
	ID       string          `json:"id"`
	Particle config.Particle `json:"particle"`
	Options  config.Spectrum `json:"options"`
}

// Response carries the spectra and the color of the selected property. On
// error only ID, Status and Error are set.
type Response struct {
	ID         string           `json:"id"`
	Status     npspec.ErrorCode `json:"status"`
	Error      string           `json:"error,omitempty"`
	Run        string           `json:"run,omitempty"`
	Extinction []float64        `json:"extinction,omitempty"`
	Scattering []float64        `json:"scattering,omitempty"`
	Absorption []float64        `json:"absorption,omitempty"`
	RGB        *colorimetry.RGB `json:"rgb,omitempty"`
	HSV        *colorimetry.HSV `json:"hsv,omitempty"`
	Color      string           `json:"color,omitempty"`
}

type Server struct {
	catalog   *material.Catalog
	converter *colorimetry.Converter
	particle  config.Particle
	spectrum  config.Spectrum
	archive   *archive.Store
	log       logrus.FieldLogger
	readLimit int64
	upgrader  websocket.Upgrader
}

// Option sets an optional parameter of New.
type Option func(*Server)

// WithLogger sets the logger. Default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// WithArchive saves every answered request to a.
func WithArchive(a *archive.Store) Option {
	return func(s *Server) { s.archive = a }
}

// WithDefaults sets the settings missing request fields take. Default is
// config.Default().
func WithDefaults(p config.Particle, sp config.Spectrum) Option {
	return func(s *Server) { s.particle, s.spectrum = p, sp }
}

// ReadLimit sets the largest request in bytes. Default is 1 MiB.
func ReadLimit(n int64) Option {
	return func(s *Server) { s.readLimit = n }
}

// New returns a server computing with the given catalog and converter. A
// nil converter means colorimetry.Default.
func New(cat *material.Catalog, conv *colorimetry.Converter, opts ...Option) *Server {
	d := config.Default()
	s := &Server{catalog: cat, converter: conv, particle: d.Particle, spectrum: d.Spectrum, readLimit: d.Server.ReadLimit}
	if s.converter == nil {
		s.converter = colorimetry.Default
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		s.log = l
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return s
}

// Handler returns the routes of the server: the websocket endpoint /ws and
// the health check /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.HandleFunc("/healthz", s.serveHealth)
	return mux
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"materials": len(s.catalog.Names()),
		"archive":   s.archive != nil,
		"version":   npspec.Version.String(),
	})
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).WithField("remote", r.RemoteAddr).Warn("websocket upgrade failed")
		return
	}
	h := NewHub(s, conn, r.RemoteAddr)
	h.Run(r.Context())
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second,
		// websocket connections are hijacked, Shutdown does not wait for them
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("listening")
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewRequest returns a request holding the server defaults, ready to be
// decoded into.
func (s *Server) NewRequest() Request {
	ans := Request{Particle: s.particle, Options: s.spectrum}
	ans.Particle.Materials = append([]string(nil), s.particle.Materials...)
	ans.Particle.RelativeRadii = append([]float64(nil), s.particle.RelativeRadii...)
	ans.Particle.ZRelativeRadii = append([]float64(nil), s.particle.ZRelativeRadii...)
	ans.Particle.XYRelativeRadii = append([]float64(nil), s.particle.XYRelativeRadii...)
	return ans
}

func status_of(err error) npspec.ErrorCode {
	var code npspec.ErrorCode
	switch {
	case errors.As(err, &code):
		return code
	case errors.Is(err, nanoparticle.ErrLayerOutOfRange):
		return npspec.InvalidNumberOfLayers
	case errors.Is(err, material.ErrUnknownMaterial):
		return npspec.UnknownMaterial
	}
	return BadRequest
}

// Compute answers req. source identifies the requester in logs and in the
// archive.
func (s *Server) Compute(req Request, source string) (resp Response) {
	resp.ID = req.ID
	log := s.log.WithFields(logrus.Fields{"remote": source, "id": req.ID})
	np, err := nanoparticle.New(s.catalog)
	if err == nil {
		np.SetConverter(s.converter)
		err = config.Configure(np, req.Particle, req.Options)
	}
	status := npspec.NoError
	if err == nil {
		status, err = np.Calculate()
	}
	if err != nil {
		resp.Status, resp.Error = status_of(err), err.Error()
		log.WithError(err).Debug("request failed")
	} else {
		result, rgb, hsv := np.Result(), np.RGB(), np.HSV()
		resp.Status = status
		resp.Extinction, resp.Scattering, resp.Absorption = result.Extinction, result.Scattering, result.Absorption
		resp.RGB, resp.HSV, resp.Color = &rgb, &hsv, rgb.AsSharp()
		log.WithFields(logrus.Fields{"layers": req.Particle.Layers, "status": status, "color": resp.Color}).Debug("computed")
	}
	if s.archive != nil {
		run := &archive.Run{
			ID: uuid.New(), Source: source, Particle: req.Particle, Spectrum: req.Options,
			Status: resp.Status, Error: resp.Error,
		}
		if err == nil {
			run.RGB, run.HSV = *resp.RGB, *resp.HSV
			run.Result = np.Result()
		}
		if aerr := s.archive.Save(run); aerr != nil {
			log.WithError(aerr).Error("failed to archive run")
		} else {
			resp.Run = run.ID.String()
		}
	}
	return
}
