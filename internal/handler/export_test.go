package handler_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
)

func TestExportCSV(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "exporter", "Password1")
	title := startSession(t, app, token)

	w := app.do(t, http.MethodGet, "/api/export/csv?title="+title, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, title+".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body := w.Body.Bytes()
	// UTF-8 BOM 让 Excel 正确识别编码
	if !bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("missing UTF-8 BOM")
	}
	text := string(body)
	if !strings.Contains(text, "Time,Role,Content") {
		t.Errorf("missing header row in %q", text)
	}
	if !strings.Contains(text, "assistant") {
		t.Error("intro message missing from export")
	}
}

func TestExportXLSX(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "exporter2", "Password1")
	title := startSession(t, app, token)

	w := app.do(t, http.MethodGet, "/api/export/xlsx?title="+title, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, title+".xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	// xlsx 是 zip 容器，以 PK 开头
	if body := w.Body.Bytes(); len(body) < 2 || body[0] != 'P' || body[1] != 'K' {
		t.Error("body is not a zip archive")
	}
}

func TestExportUnknownTitle(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "exporter3", "Password1")

	w := app.do(t, http.MethodGet, "/api/export/csv?title=no_such_session", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = app.do(t, http.MethodGet, "/api/export/csv", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing title: status = %d, want 400", w.Code)
	}
}

func TestAuditLogList(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "audited", "Password1")

	// 认证通过的请求都会留痕
	app.do(t, http.MethodGet, "/api/me", token, nil)
	startSession(t, app, token)

	w := app.do(t, http.MethodGet, "/api/logs", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	e := decodeEnvelope(t, w)
	items, _ := e.Data["items"].([]interface{})
	if len(items) < 2 {
		t.Fatalf("items = %d, want at least 2", len(items))
	}

	// path/action 落库是密文，读出来要还原成明文
	paths := map[string]bool{}
	for _, it := range items {
		m, _ := it.(map[string]interface{})
		if p, _ := m["path"].(string); p != "" {
			paths[p] = true
		}
	}
	if !paths["/api/me"] {
		t.Errorf("decrypted paths = %v, want /api/me present", paths)
	}
}

func TestAuditLogIsolatedPerUser(t *testing.T) {
	app := newTestApp(t)
	tokenA := app.register(t, "loggeda", "Password1")
	tokenB := app.register(t, "loggedb", "Password1")

	app.do(t, http.MethodGet, "/api/me", tokenA, nil)

	w := app.do(t, http.MethodGet, "/api/logs", tokenB, nil)
	e := decodeEnvelope(t, w)
	items, _ := e.Data["items"].([]interface{})
	for _, it := range items {
		m, _ := it.(map[string]interface{})
		if p, _ := m["path"].(string); p == "/api/me" {
			t.Error("user B sees user A's audit entries")
		}
	}
}
