// Package upstreamfake is an in-memory stand-in for the Padtracker REST API used by tests.
package upstreamfake

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const ValidOTP = "123456"

// Call is one request the fake received.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
	Token  string
}

type Server struct {
	*httptest.Server

	mu      sync.Mutex
	calls   []Call
	roles   map[string]string
	revoked map[string]bool
	fail    map[string]int
	saved   map[string]map[string]any
	order   []string
	nextID  int
	records map[string][]map[string]any
}

// New starts a fake upstream that is closed with the test.
func New(t testing.TB) *Server {
	s := &Server{
		roles:   map[string]string{},
		revoked: map[string]bool{},
		fail:    map[string]int{},
		saved:   map[string]map[string]any{},
		records: map[string][]map[string]any{},
		nextID:  1,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// SetRole decides the role returned when mobile verifies its OTP. Unknown mobiles are admins.
func (s *Server) SetRole(mobile, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[mobile] = role
}

// Revoke makes token fail validation from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// Fail answers "METHOD /path" with status and a JSON message until cleared with status 0.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, method+" "+path)
		return
	}
	s.fail[method+" "+path] = status
}

// SetRecords seeds the list returned for a resource or history base path.
func (s *Server) SetRecords(path string, rows []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[path] = rows
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// LastCall returns the most recent call to path.
func (s *Server) LastCall(method, path string) (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].Method == method && s.calls[i].Path == path {
			return s.calls[i], true
		}
	}
	return Call{}, false
}

// CountCalls counts the calls to path.
func (s *Server) CountCalls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
		Token:  strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
	})

	if status, ok := s.fail[r.Method+" "+r.URL.Path]; ok {
		writeJSON(w, status, map[string]any{"message": fmt.Sprintf("Upstream failure %d", status)})
		return
	}

	path := r.URL.Path
	switch {
	case path == "/auth/send-otp":
		writeJSON(w, http.StatusOK, map[string]any{"message": "OTP sent"})
	case path == "/auth/verify-otp":
		s.verify(w, body)
	case path == "/auth/validate-token":
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || s.revoked[token] {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": true})
	case path == "/dashboard/stats":
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"cards": map[string]any{"totalMachines": 12, "activeMachines": 10, "totalDispensed": 480},
			"charts": []map[string]any{
				{"key": "dispenseTrend", "title": "Dispense trend", "type": "line", "series": []map[string]any{
					{"name": "Dispensed", "points": []map[string]any{{"label": "Mon", "value": 40}, {"label": "Tue", "value": 55}}},
				}},
			},
		}})
	case path == "/reports/save" && r.Method == http.MethodPost:
		s.save(w, "", body)
	case path == "/reports/getReports":
		s.list(w, r.URL.Query().Get("type"))
	case strings.HasPrefix(path, "/reports/viewSavedReport/"):
		s.view(w, strings.TrimPrefix(path, "/reports/viewSavedReport/"))
	case strings.HasPrefix(path, "/reports/updateSavedReport/"):
		s.save(w, strings.TrimPrefix(path, "/reports/updateSavedReport/"), body)
	case strings.HasPrefix(path, "/reports/deleteSavedReport/"):
		s.deleteSaved(w, strings.TrimPrefix(path, "/reports/deleteSavedReport/"))
	case strings.HasPrefix(path, "/reports/") && r.Method == http.MethodPost:
		s.report(w, body)
	default:
		s.crud(w, r, body)
	}
}

func (s *Server) verify(w http.ResponseWriter, body map[string]any) {
	mobile, _ := body["mobile"].(string)
	otp, _ := body["otp"].(string)
	if otp != ValidOTP {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid OTP"})
		return
	}
	role := s.roles[mobile]
	if role == "" {
		role = "admin"
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"token":    "up-" + mobile,
		"role":     role,
		"roleId":   "2",
		"username": mobile,
		"name":     "Test " + role,
	}})
}

// report answers with one row per selected state and a summary derived from the filters,
// so a reopened saved report can be compared with the original.
func (s *Server) report(w http.ResponseWriter, body map[string]any) {
	states, _ := body["states"].([]any)
	if len(states) == 0 {
		states = []any{"Kerala"}
	}
	rows := []map[string]any{}
	for i, st := range states {
		rows = append(rows, map[string]any{
			"machineId": fmt.Sprintf("VM-%d", i+1), "schoolName": "GHS " + fmt.Sprint(st), "state": st,
			"district": "North", "status": "active", "totalDispensed": 10 * (i + 1), "coinDispensed": 5, "cardDispensed": 3, "freeDispensed": 2,
			"refills": 1, "currentStock": 40,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": rows,
		"summary": map[string]any{
			"totalMachines":  len(rows),
			"totalDispensed": 10 * len(rows),
			"range":          fmt.Sprintf("%v..%v", body["startDate"], body["endDate"]),
		},
	})
}

func (s *Server) save(w http.ResponseWriter, id string, body map[string]any) {
	if id == "" {
		id = strconv.Itoa(s.nextID)
		s.nextID++
		s.order = append(s.order, id)
	} else if _, ok := s.saved[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Saved report not found"})
		return
	}
	stored := map[string]any{}
	for k, v := range body {
		stored[k] = v
	}
	stored["id"] = id
	// Filters come back as an encoded string, the way the API stores them.
	if f, ok := stored["filters"]; ok {
		encoded, _ := json.Marshal(f)
		stored["filters"] = string(encoded)
	}
	s.saved[id] = stored
	writeJSON(w, http.StatusOK, map[string]any{"data": stored, "message": "Report saved"})
}

func (s *Server) list(w http.ResponseWriter, reportType string) {
	out := []map[string]any{}
	for _, id := range s.order {
		rec, ok := s.saved[id]
		if !ok {
			continue
		}
		if reportType == "" || rec["reportType"] == reportType {
			out = append(out, rec)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) view(w http.ResponseWriter, id string) {
	rec, ok := s.saved[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Saved report not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

func (s *Server) deleteSaved(w http.ResponseWriter, id string) {
	if _, ok := s.saved[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Saved report not found"})
		return
	}
	delete(s.saved, id)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Report deleted"})
}

// crud serves the CRUD and history listings from the seeded rows.
func (s *Server) crud(w http.ResponseWriter, r *http.Request, body map[string]any) {
	path := r.URL.Path
	switch r.Method {
	case http.MethodGet:
		base := strings.TrimSuffix(path, "/export-data")
		rows, ok := s.records[base]
		if !ok {
			rows = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": paginate(rows, r.URL.Query()), "total": len(rows)})
	case http.MethodPost:
		id := strconv.Itoa(s.nextID)
		s.nextID++
		rec := map[string]any{}
		for k, v := range body {
			rec[k] = v
		}
		rec["id"] = id
		s.records[path] = append(s.records[path], rec)
		writeJSON(w, http.StatusOK, map[string]any{"data": rec})
	case http.MethodPut:
		idx := strings.LastIndex(path, "/update/")
		if idx < 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": body})
	case http.MethodDelete:
		idx := strings.LastIndex(path, "/")
		base, id := path[:idx], path[idx+1:]
		rows := s.records[base]
		kept := rows[:0]
		for _, row := range rows {
			if fmt.Sprint(row["id"]) != id {
				kept = append(kept, row)
			}
		}
		s.records[base] = kept
		writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, nil)
	}
}

// paginate returns the requested page when both page and pageSize are given, else every row.
func paginate(rows []map[string]any, q url.Values) []map[string]any {
	page, errPage := strconv.Atoi(q.Get("page"))
	size, errSize := strconv.Atoi(q.Get("pageSize"))
	if errPage != nil || errSize != nil || page < 1 || size < 1 {
		return rows
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []map[string]any{}
	}
	end := min(start+size, len(rows))
	return rows[start:end]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
