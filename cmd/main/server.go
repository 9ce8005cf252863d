package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/CTAG07/layerview/pkg/snippet"
	"github.com/CTAG07/layerview/pkg/store"
	"github.com/CTAG07/layerview/pkg/view"
)

// Server wires the page server and the management API together.
type Server struct {
	cm          *ConfigManager
	db          *sql.DB
	logger      *slog.Logger
	catalog     store.Catalog
	authAPI     *AuthAPI
	templateAPI *TemplateAPI
	encodeAPI   *EncodeAPI
	serverAPI   *ServerAPI
	pageMux     *http.ServeMux
	apiMux      *http.ServeMux
}

// newCatalog picks the template store named by the server config.
func newCatalog(cfg *Config, db *sql.DB) (store.Catalog, error) {
	switch cfg.Server.StoreDriver {
	case storeSQL:
		if err := store.SetupSchema(db); err != nil {
			return nil, err
		}
		return store.NewSQLStore(db), nil
	case storeFile:
		return store.NewFileStore(cfg.Server.TemplateDir, cfg.View.Extension), nil
	}
	return nil, fmt.Errorf("unknown store driver '%s'", cfg.Server.StoreDriver)
}

func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, catalog store.Catalog, actionChan chan string) *Server {
	server := &Server{
		cm:      cm,
		db:      db,
		logger:  logger,
		catalog: catalog,
		pageMux: http.NewServeMux(),
		apiMux:  http.NewServeMux(),
	}

	server.authAPI = NewAuthAPI(db, logger)
	server.templateAPI = NewTemplateAPI(catalog, server.render, logger)
	server.encodeAPI = NewEncodeAPI(logger)
	server.serverAPI = NewServerAPI(cm, actionChan, logger)

	apiMux := http.NewServeMux()
	server.authAPI.RegisterRoutes(apiMux)
	server.templateAPI.RegisterRoutes(apiMux)
	server.encodeAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Everything under /api/ is authenticated except the health check.
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", server.authAPI.Authenticate(apiMux))

	server.pageMux.HandleFunc("/favicon.ico", handleFavicon)
	server.pageMux.HandleFunc("/", server.handlePage)

	return server
}

// newEngine builds a fresh engine for one request from the current config.
// A non-empty page replaces the configured one.
func (s *Server) newEngine(st store.Store, cfg Config, page string) (*view.Engine, error) {
	vc := *cfg.View
	if page != "" {
		vc.Page = page
	}

	e, err := view.New(s.logger, st, snippet.NewHCL(vc.StrictVariables), &vc)
	if err != nil {
		return nil, err
	}
	for _, p := range cfg.Partials {
		if err = e.LoadPartial(p.Name, p.Source); err != nil {
			return nil, err
		}
	}
	e.SetStaticMap(cfg.Static, false)
	e.SetDynamicMap(cfg.Vars, view.ModeUnset)
	return e, nil
}

// render composes page from st with the current config and runtime data.
func (s *Server) render(st store.Store, page string, data map[string]any) (string, error) {
	e, err := s.newEngine(st, s.cm.Get(), page)
	if err != nil {
		return "", err
	}
	return e.Compose("", data)
}

// handlePage serves the page named by the request path. Query parameters
// become runtime data.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	page := strings.Trim(r.URL.Path, "/")
	out, err := s.render(s.catalog, page, queryData(r))
	if err != nil {
		if errors.Is(err, view.ErrTemplateNotFound) {
			s.logger.Debug("Page not found", "page", page, "remote_addr", getClientIP(r), "error", err)
			http.NotFound(w, r)
			return
		}
		s.logger.Error("Failed to compose page", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("Serving page", "page", page, "remote_addr", getClientIP(r), "bytes", len(out))
	for k, v := range s.cm.Get().Server.Headers {
		w.Header().Set(k, v)
	}
	_, _ = io.WriteString(w, out)
}

// queryData turns query parameters into runtime data. Repeated parameters
// become lists.
func queryData(r *http.Request) map[string]any {
	query := r.URL.Query()
	data := make(map[string]any, len(query))
	for k, vs := range query {
		if len(vs) == 1 {
			data[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		data[k] = list
	}
	return data
}

func getClientIP(r *http.Request) string {
	// The X-Real-Ip header contains the forwarded IP in some cases (like from nginx)
	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}

	// The first address of X-Forwarded-For is the original client.
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// handleFavicon answers favicon requests with no content instead of
// looking up a page called favicon.ico.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
