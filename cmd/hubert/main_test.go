package main

import (
	"bytes"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	hubertserver "hubert.dev/hubert/backend/server"
)

func TestGenerateArid(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"generate", "arid"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut.String())
	}
	if !strings.HasPrefix(strings.TrimSpace(out.String()), "arid1") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestGenerateEnvelope(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"generate", "envelope", "16"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut.String())
	}
	if strings.TrimSpace(out.String()) == "" {
		t.Fatalf("expected non-empty envelope text")
	}
}

func TestPutGetExistsAgainstServerBackend(t *testing.T) {
	srv := hubertserver.New(0)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	host, port := splitTestServerURL(t, ts.URL)

	var aridOut bytes.Buffer
	if code := run([]string{"generate", "arid"}, &aridOut, &bytes.Buffer{}); code != 0 {
		t.Fatalf("generate arid failed")
	}
	id := strings.TrimSpace(aridOut.String())

	var envOut bytes.Buffer
	if code := run([]string{"generate", "envelope", "8"}, &envOut, &bytes.Buffer{}); code != 0 {
		t.Fatalf("generate envelope failed")
	}
	env := strings.TrimSpace(envOut.String())

	flags := []string{"--storage", "server", "--host", host, "--port", port}

	var putOut, putErr bytes.Buffer
	code := run(append(append([]string{}, flags...), "put", id, env), &putOut, &putErr)
	if code != 0 {
		t.Fatalf("put failed: %s", putErr.String())
	}

	var existsOut, existsErr bytes.Buffer
	code = run(append(append([]string{}, flags...), "exists", id), &existsOut, &existsErr)
	if code != 0 {
		t.Fatalf("exists failed: %s", existsErr.String())
	}

	var getOut, getErr bytes.Buffer
	code = run(append(append([]string{}, flags...), "get", id), &getOut, &getErr)
	if code != 0 {
		t.Fatalf("get failed: %s", getErr.String())
	}
	if strings.TrimSpace(getOut.String()) != env {
		t.Fatalf("roundtrip mismatch: got %q, want %q", getOut.String(), env)
	}
}

func splitTestServerURL(t *testing.T, url string) (string, string) {
	t.Helper()
	rest := strings.TrimPrefix(url, "http://")
	host, portStr, err := net.SplitHostPort(rest)
	if err != nil {
		t.Fatalf("parse test server url %q: %v", url, err)
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		t.Fatalf("parse port %q: %v", portStr, err)
	}
	return host, portStr
}
