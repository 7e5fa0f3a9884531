package apitest

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/resource"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

// registerRoutes wires the endpoints of every kind in reg.
func (s *Server) registerRoutes(reg *resource.Registry) {
	s.router.HandleFunc("/api/currentUser", s.handleCurrentUser).Methods("GET")

	for _, k := range reg.Kinds() {
		k := k
		list := s.readHandler(s.handleList(k))
		if k.IndexRole == v1.RoleAdmin {
			list = s.adminHandler(s.handleList(k))
		}
		s.router.HandleFunc(k.IndexKey()[0], list).Methods("GET")
		if k.ReadOnly {
			continue
		}
		s.router.HandleFunc(k.Endpoint, s.readHandler(s.handleGet(k))).Methods("GET")
		s.router.HandleFunc(k.Endpoint+"/post", s.adminHandler(s.handleCreate(k))).Methods("POST")
		s.router.HandleFunc(k.Endpoint, s.adminHandler(s.handleUpdate(k))).Methods("PUT")
		s.router.HandleFunc(k.Endpoint, s.adminHandler(s.handleDelete(k))).Methods("DELETE")
	}
}

func (s *Server) principal() *access.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return access.FromCurrentUser(s.user)
}

func (s *Server) readHandler(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !access.HasRole(s.principal(), v1.RoleUser) {
			s.writeError(w, http.StatusForbidden, "Access is denied")
			return
		}
		next(w, r)
	}
}

func (s *Server) adminHandler(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !access.HasRole(s.principal(), v1.RoleAdmin) {
			s.writeError(w, http.StatusForbidden, "Access is denied")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.user
	s.mu.Unlock()
	if u == nil {
		s.writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleList(k *resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.Rows(k))
	}
}

func (s *Server) handleGet(k *resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get(k.IDField)
		s.mu.Lock()
		defer s.mu.Unlock()
		if i := s.find(k, id); i >= 0 {
			s.writeJSON(w, http.StatusOK, s.collection(k).rows[i])
			return
		}
		s.notFound(w, k, id)
	}
}

func (s *Server) handleCreate(k *resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := make(resource.Values)
		for name, v := range r.URL.Query() {
			if len(v) > 0 {
				values[name] = v[0]
			}
		}
		row, err := k.Body(values, true)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		c := s.collection(k)
		if k.IDField == "id" {
			row["id"] = c.nextID
			c.nextID++
		} else if s.find(k, values[k.IDField]) >= 0 {
			s.writeError(w, http.StatusConflict, k.Title+" already exists")
			return
		}
		c.rows = append(c.rows, resource.Row(row))
		s.logger.Debug("created", zap.String("kind", k.Name), zap.String("id", formatID(row[k.IDField])))
		s.writeJSON(w, http.StatusOK, row)
	}
}

func (s *Server) handleUpdate(k *resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get(k.IDField)
		var patch map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.find(k, id)
		if i < 0 {
			s.notFound(w, k, id)
			return
		}
		row := s.collection(k).rows[i]
		for name, v := range patch {
			if name == k.IDField {
				continue
			}
			row[name] = v
		}
		s.writeJSON(w, http.StatusOK, row)
	}
}

func (s *Server) handleDelete(k *resource.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get(k.IDField)
		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.find(k, id)
		if i < 0 {
			s.notFound(w, k, id)
			return
		}
		c := s.collection(k)
		c.rows = append(c.rows[:i], c.rows[i+1:]...)
		s.writeJSON(w, http.StatusOK, v1.Message{Message: k.Title + " with " + k.IDField + " " + id + " deleted"})
	}
}

// find returns the index of the row with id, or -1. Callers hold s.mu.
func (s *Server) find(k *resource.Kind, id string) int {
	for i, row := range s.collection(k).rows {
		if formatID(row[k.IDField]) == id {
			return i
		}
	}
	return -1
}

func (s *Server) notFound(w http.ResponseWriter, k *resource.Kind, id string) {
	s.writeError(w, http.StatusNotFound, k.Title+" with "+k.IDField+" "+id+" not found")
}
