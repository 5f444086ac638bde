// Command smoke runs an end-to-end check against a running API instance:
// register, login, submit an analysis, read it back, log out.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"
)

func main() {
	base := os.Getenv("SKINCHECK_SMOKE_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}

	email := fmt.Sprintf("smoke-%d@example.com", rand.New(rand.NewSource(time.Now().UnixNano())).Int63())

	status, _ := post(client, base+"/v1/auth/register", map[string]any{
		"email": email, "password": "smoke-pass-1", "name": "Smoke Test",
	})
	if status != http.StatusCreated {
		log.Fatalf("register: status %d", status)
	}

	status, _ = post(client, base+"/v1/auth/login", map[string]any{
		"email": email, "password": "smoke-pass-1",
	})
	if status != http.StatusOK {
		log.Fatalf("login: status %d", status)
	}

	status, created := post(client, base+"/v1/analyses", map[string]any{
		"image_ref": "/uploads/smoke.jpg",
	})
	if status != http.StatusCreated {
		log.Fatalf("create analysis: status %d", status)
	}
	var rec struct {
		ID      string `json:"id"`
		Disease string `json:"disease"`
	}
	if err := json.Unmarshal(created, &rec); err != nil || rec.ID == "" {
		log.Fatalf("create analysis: bad response %s", created)
	}

	resp, err := client.Get(base + "/v1/analyses")
	if err != nil {
		log.Fatalf("list analyses: %v", err)
	}
	var records []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		log.Fatalf("list analyses: decode: %v", err)
	}
	resp.Body.Close()
	if len(records) != 1 || records[0].ID != rec.ID {
		log.Fatalf("list analyses: expected the created record, got %v", records)
	}

	if status, _ = post(client, base+"/v1/auth/logout", nil); status != http.StatusOK {
		log.Fatalf("logout: status %d", status)
	}
	resp, err = client.Get(base + "/v1/analyses")
	if err != nil {
		log.Fatalf("list after logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		log.Fatalf("revoked session still accepted: status %d", resp.StatusCode)
	}

	fmt.Printf("smoke test passed: account=%s analysis=%s disease=%q\n", email, rec.ID, rec.Disease)
}

func post(client *http.Client, url string, body any) (int, []byte) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal body for %s: %v", url, err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	resp, err := client.Post(url, "application/json", reader)
	if err != nil {
		log.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		log.Fatalf("POST %s: read response: %v", url, err)
	}
	return resp.StatusCode, buf.Bytes()
}
