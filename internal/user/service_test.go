package user_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
	"github.com/OceanLab-Technology/masterJGS/internal/store"
	"github.com/OceanLab-Technology/masterJGS/internal/user"
)

func newUserServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := user.NewService(store.NewSeededMemoryStore())

	r := chi.NewRouter()
	r.Get("/api/users", svc.List)
	r.Post("/api/users", svc.Create)
	r.Put("/api/users/{id}", svc.Update)
	r.Post("/api/users/{id}/change-password", svc.ChangePassword)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestListUsers_NeverExposesHash(t *testing.T) {
	srv := newUserServer(t)

	resp := request(t, http.MethodGet, srv.URL+"/api/users", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if strings.Contains(strings.ToLower(string(raw)), "password") {
		t.Error("user listing leaks password material")
	}

	var users []model.User
	if err := json.Unmarshal(raw, &users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(users) != 5 {
		t.Fatalf("expected 5 seeded users, got %d", len(users))
	}
	if users[0].ID != "U001" || users[0].Nickname != "john_doe" {
		t.Errorf("unexpected first user: %+v", users[0])
	}
}

func TestCreateUser(t *testing.T) {
	srv := newUserServer(t)

	resp := request(t, http.MethodPost, srv.URL+"/api/users",
		user.CreateUserRequest{Nickname: "new_client", Password: "s3cret!"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var u model.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.ID != "U006" {
		t.Errorf("expected U006, got %s", u.ID)
	}
	if u.Type != "Client" || !u.Enabled || u.Locked {
		t.Errorf("new account defaults wrong: %+v", u)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	srv := newUserServer(t)

	cases := []struct {
		name string
		req  user.CreateUserRequest
	}{
		{"short nickname", user.CreateUserRequest{Nickname: "ab", Password: "s3cret!"}},
		{"short password", user.CreateUserRequest{Nickname: "new_client", Password: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := request(t, http.MethodPost, srv.URL+"/api/users", tc.req)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestUpdateUser(t *testing.T) {
	srv := newUserServer(t)

	resp := request(t, http.MethodPut, srv.URL+"/api/users/U002",
		user.UpdateUserRequest{Nickname: "jane_smith", Enabled: true, Locked: false})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var u model.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !u.Enabled || u.Locked {
		t.Errorf("expected enabled+unlocked after update, got %+v", u)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	srv := newUserServer(t)

	resp := request(t, http.MethodPut, srv.URL+"/api/users/U999",
		user.UpdateUserRequest{Nickname: "ghost"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestChangePassword(t *testing.T) {
	srv := newUserServer(t)

	resp := request(t, http.MethodPost, srv.URL+"/api/users/U001/change-password",
		user.ChangePasswordRequest{NewPassword: "hunter22", ConfirmPassword: "hunter22"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}

func TestChangePassword_Mismatch(t *testing.T) {
	srv := newUserServer(t)

	resp := request(t, http.MethodPost, srv.URL+"/api/users/U001/change-password",
		user.ChangePasswordRequest{NewPassword: "hunter22", ConfirmPassword: "hunter23"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 on mismatch, got %d", resp.StatusCode)
	}
}

func TestChangePassword_TooShort(t *testing.T) {
	srv := newUserServer(t)

	resp := request(t, http.MethodPost, srv.URL+"/api/users/U001/change-password",
		user.ChangePasswordRequest{NewPassword: "abc", ConfirmPassword: "abc"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 on short password, got %d", resp.StatusCode)
	}
}
