package handler_test

import (
	"net/http"
	"testing"

	"github.com/harish-arikkara/learning-platform/internal/util"

	"github.com/gin-gonic/gin"
)

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"short username", gin.H{"username": "ab", "password": "Password1", "confirm_password": "Password1"}},
		{"bad username chars", gin.H{"username": "bad name!", "password": "Password1", "confirm_password": "Password1"}},
		{"weak password", gin.H{"username": "gooduser", "password": "password", "confirm_password": "password"}},
		{"mismatched confirm", gin.H{"username": "gooduser", "password": "Password1", "confirm_password": "Password2"}},
		{"missing fields", gin.H{"username": "gooduser"}},
	}
	for _, tt := range tests {
		w := app.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, w.Code)
		}
		if e := decodeEnvelope(t, w); e.Code != util.CodeInvalidParam {
			t.Errorf("%s: code = %d, want %d", tt.name, e.Code, util.CodeInvalidParam)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "Password1")

	// 用户名不区分大小写唯一
	w := app.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username":         "ALICE",
		"password":         "Password1",
		"confirm_password": "Password1",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate register: status = %d, want 400", w.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "bob", "Password1")

	w := app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "bob",
		"password": "WrongPass1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if e := decodeEnvelope(t, w); e.Code != util.CodeAuth {
		t.Errorf("code = %d, want %d", e.Code, util.CodeAuth)
	}

	// 未知用户与密码错误返回一样的提示
	w = app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "nobody",
		"password": "WrongPass1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown user: status = %d, want 401", w.Code)
	}
}

func TestLoginCaseInsensitiveUsername(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "Carol", "Password1")
	app.login(t, "carol", "Password1")
}

func TestLoginLockoutAfterFailures(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "dave", "Password1")

	// 连续 5 次密码错误触发锁定
	for i := 0; i < 5; i++ {
		w := app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
			"username": "dave",
			"password": "WrongPass1",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i+1, w.Code)
		}
	}

	// 锁定期内正确密码也拒绝
	w := app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "dave",
		"password": "Password1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("locked login: status = %d, want 401", w.Code)
	}
	if e := decodeEnvelope(t, w); e.Code != util.CodeLocked {
		t.Errorf("code = %d, want %d", e.Code, util.CodeLocked)
	}
}

func TestGetMe(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "erin", "Password1")

	w := app.do(t, http.MethodGet, "/api/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	e := decodeEnvelope(t, w)
	user, _ := e.Data["user"].(map[string]interface{})
	if user["username"] != "erin" {
		t.Errorf("username = %v", user["username"])
	}
	if user["display_name"] != "Test User" {
		t.Errorf("display_name = %v", user["display_name"])
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "frank", "Password1")

	w := app.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d body %s", w.Code, w.Body.String())
	}

	// 吊销后的 token 不再可用
	w = app.do(t, http.MethodGet, "/api/me", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("revoked token: status = %d, want 401", w.Code)
	}

	// 重新登录拿到的新 token 正常
	token = app.login(t, "frank", "Password1")
	w = app.do(t, http.MethodGet, "/api/me", token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("fresh token: status = %d", w.Code)
	}
}

func TestUpdateProfile(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "grace", "Password1")

	w := app.do(t, http.MethodPost, "/api/profile", token, gin.H{
		"display_name": "Grace H",
		"firm":         "Acme",
		"unit":         "Engineering",
		"location":     "Berlin",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodGet, "/api/me", token, nil)
	e := decodeEnvelope(t, w)
	user, _ := e.Data["user"].(map[string]interface{})
	if user["display_name"] != "Grace H" || user["firm"] != "Acme" || user["location"] != "Berlin" {
		t.Errorf("profile not updated: %v", user)
	}
}

func TestChangePassword(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "henry", "Password1")

	// 旧密码错误
	w := app.do(t, http.MethodPost, "/api/profile/password", token, gin.H{
		"old_password": "WrongPass1",
		"new_password": "NewPassword1",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("wrong old password: status = %d, want 400", w.Code)
	}

	// 新密码太弱
	w = app.do(t, http.MethodPost, "/api/profile/password", token, gin.H{
		"old_password": "Password1",
		"new_password": "weak",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("weak new password: status = %d, want 400", w.Code)
	}

	w = app.do(t, http.MethodPost, "/api/profile/password", token, gin.H{
		"old_password": "Password1",
		"new_password": "NewPassword1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("change password: status = %d body %s", w.Code, w.Body.String())
	}

	app.login(t, "henry", "NewPassword1")
}
