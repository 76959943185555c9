package subsonic

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"AriaFM/model"
)

func testServerInfo() ServerInfo {
	return ServerInfo{Version: "1.16.1", Type: "ariafm", ServerVersion: "0.9.0"}
}

func TestResponseJSONShape(t *testing.T) {
	resp := NewResponse(testServerInfo()).WithPayload("license", License{Valid: true})

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	body, ok := decoded["subsonic-response"]
	if !ok {
		t.Fatal("top-level key must be subsonic-response")
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "1.16.1" {
		t.Errorf("version = %v", body["version"])
	}
	if body["openSubsonic"] != true {
		t.Errorf("openSubsonic = %v, want true", body["openSubsonic"])
	}
	license, ok := body["license"].(map[string]interface{})
	if !ok {
		t.Fatal("payload should appear under its name")
	}
	if license["valid"] != true {
		t.Errorf("license.valid = %v, want true", license["valid"])
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponse(testServerInfo(), CodeNotFound, "Song not found.")

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	body := decoded["subsonic-response"]
	if body["status"] != "failed" {
		t.Errorf("status = %v, want failed", body["status"])
	}
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatal("error element missing")
	}
	if errObj["code"] != float64(70) {
		t.Errorf("error code = %v, want 70", errObj["code"])
	}
	if errObj["message"] != "Song not found." {
		t.Errorf("error message = %v", errObj["message"])
	}
}

func TestResponseXML(t *testing.T) {
	resp := NewErrorResponse(testServerInfo(), CodeAuthentication, "Wrong username or password.")

	data, err := xml.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`<subsonic-response`,
		`xmlns="http://subsonic.org/restapi"`,
		`status="failed"`,
		`version="1.16.1"`,
		`<error code="40" message="Wrong username or password."`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNowPlayingXMLElementNames(t *testing.T) {
	entry := &model.NowPlayingEntry{
		PlayerName: "player",
		StartedAt:  time.Now().Add(-3 * time.Minute),
	}
	song := newTestSong()
	container := NowPlayingContainer{
		Entries: []NowPlayingView{NewNowPlayingView(entry, song, "alice", time.Now())},
	}
	resp := NewResponse(testServerInfo()).WithPayload("nowPlaying", container)

	data, err := xml.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "<nowPlaying>") {
		t.Errorf("container element should be nowPlaying:\n%s", out)
	}
	// The protocol names list elements "entry", not "song".
	if !strings.Contains(out, "<entry ") {
		t.Errorf("entries should render as <entry>:\n%s", out)
	}
	if strings.Contains(out, "<song ") {
		t.Errorf("entries must not render as <song>:\n%s", out)
	}
	if !strings.Contains(out, `minutesAgo="3"`) {
		t.Errorf("minutesAgo attribute missing:\n%s", out)
	}
}
