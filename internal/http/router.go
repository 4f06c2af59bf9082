package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Schedules  *ScheduleHandler
	Events     *EventHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Schedules != nil {
		mux.HandleFunc("/schedules", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Schedules.List(w, r)
			case http.MethodPost:
				cfg.Schedules.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/schedules/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/schedules/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithScheduleID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodPut:
				cfg.Schedules.Update(w, r)
			case http.MethodDelete:
				cfg.Schedules.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Events != nil {
		mux.HandleFunc("/calendar/", func(w http.ResponseWriter, r *http.Request) {
			calendarID, eventID, ok := splitCalendarPath(r.URL.Path)
			if !ok {
				http.NotFound(w, r)
				return
			}

			ctx := ContextWithCalendarID(r.Context(), calendarID)
			if eventID != "" {
				ctx = ContextWithEventID(ctx, eventID)
			}
			r = r.WithContext(ctx)

			if eventID == "" {
				switch r.Method {
				case http.MethodGet:
					cfg.Events.List(w, r)
				case http.MethodPost:
					cfg.Events.Create(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPost)
				}
				return
			}

			switch r.Method {
			case http.MethodGet:
				cfg.Events.Get(w, r)
			case http.MethodPatch:
				cfg.Events.Patch(w, r)
			case http.MethodDelete:
				cfg.Events.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// splitCalendarPath parses /calendar/{calendar_id}/events[/{event_id}] into
// its identifiers. Trailing slashes are tolerated; anything else is not a
// calendar events path.
func splitCalendarPath(path string) (calendarID, eventID string, ok bool) {
	rest := strings.TrimPrefix(path, "/calendar/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] == "events":
		return parts[0], "", true
	case len(parts) == 3 && parts[0] != "" && parts[1] == "events" && parts[2] != "":
		return parts[0], parts[2], true
	default:
		return "", "", false
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
