// Package transferegovtest serves an in-memory TransfereGov API for tests.
// It understands the eq., in.() and not.is.null filters plus limit/offset.
package transferegovtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Row is one upstream record keyed by its API column names.
type Row map[string]any

type Server struct {
	*httptest.Server

	mu    sync.Mutex
	data  map[string][]Row
	calls map[string]int

	// Fail, when set, makes matching requests answer 500.
	Fail func(resource string, query url.Values) bool
}

func NewServer() *Server {
	s := &Server{
		data:  make(map[string][]Row),
		calls: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) Add(resource string, rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[resource] = append(s.data[resource], rows...)
}

// Calls reports how many requests hit resource.
func (s *Server) Calls(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[resource]
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	resource := strings.Trim(r.URL.Path, "/")
	query := r.URL.Query()

	s.mu.Lock()
	s.calls[resource]++
	rows := append([]Row(nil), s.data[resource]...)
	fail := s.Fail
	s.mu.Unlock()

	if fail != nil && fail(resource, query) {
		http.Error(w, "upstream failure", http.StatusInternalServerError)
		return
	}

	var matched []Row
	for _, row := range rows {
		if matches(row, query) {
			matched = append(matched, row)
		}
	}

	offset, _ := strconv.Atoi(query.Get("offset"))
	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil || limit <= 0 {
		limit = len(matched)
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	page := matched[offset:end]
	if page == nil {
		page = []Row{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

func matches(row Row, query url.Values) bool {
	for column, values := range query {
		if column == "limit" || column == "offset" {
			continue
		}
		filter := values[0]
		v, present := row[column]
		text := ""
		if present && v != nil {
			text = fmt.Sprint(v)
		}

		switch {
		case filter == "not.is.null":
			if !present || v == nil {
				return false
			}
		case strings.HasPrefix(filter, "eq."):
			if text != strings.TrimPrefix(filter, "eq.") {
				return false
			}
		case strings.HasPrefix(filter, "in.(") && strings.HasSuffix(filter, ")"):
			found := false
			for _, id := range strings.Split(filter[len("in.("):len(filter)-1], ",") {
				if id == text {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}
