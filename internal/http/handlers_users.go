package http

import (
	"net/http"

	"salarydash/internal/core"
	applog "salarydash/internal/log"
)

type createUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Occupation string `json:"occupation"`
	Bio        string `json:"bio"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.ComponentHTTP, "create_user", err)
		return
	}

	u, err := s.deps.Users.Register(r.Context(), core.User{
		Name:       sanitizeInput(req.Name),
		Email:      sanitizeInput(req.Email),
		Phone:      sanitizeInput(req.Phone),
		Occupation: sanitizeInput(req.Occupation),
		Bio:        sanitizeInput(req.Bio),
	})
	if err != nil {
		s.writeError(w, r, applog.ComponentHTTP, "create_user", err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "User registered", applog.FieldUserID, u.ID)
	NewJSONResponse().Status(http.StatusCreated).Field("user", u).Write(w)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := ParseUserID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, applog.ComponentHTTP, "get_user", err)
		return
	}
	u, err := s.deps.Users.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.ComponentHTTP, "get_user", err)
		return
	}
	NewJSONResponse().Field("user", u).Write(w)
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Categories.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, applog.ComponentHTTP, "list_categories", err)
		return
	}
	if list == nil {
		list = []core.Category{}
	}
	NewJSONResponse().Field("categories", list).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.ComponentHTTP, "create_category", err)
		return
	}
	c, err := s.deps.Categories.Create(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		s.writeError(w, r, applog.ComponentHTTP, "create_category", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Field("category", c).Write(w)
}
