package server_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatcore-ai/chatcore/pkg/types"
)

type sseEvent struct {
	Name string
	Data string
}

// parseSSE splits a fully buffered SSE body into events.
func parseSSE(body io.Reader) []sseEvent {
	var events []sseEvent
	var cur sseEvent
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.Data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.Name != "" || cur.Data != "" {
				events = append(events, cur)
				cur = sseEvent{}
			}
		}
	}
	return events
}

func sendMessage(sessionID, content string) (*http.Response, error) {
	body, _ := json.Marshal(map[string]string{"content": content})
	return http.Post(ts.URL+"/session/"+sessionID+"/message", "application/json", bytes.NewReader(body))
}

var _ = Describe("Session Endpoints", func() {
	Describe("POST /session/{sessionID}/message", func() {
		It("streams the invocation as SSE", func() {
			resp, err := sendMessage("msg-stream", "hi there")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(200))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))

			events := parseSSE(resp.Body)
			Expect(len(events)).To(BeNumerically(">=", 3))

			var texts []string
			var evTypes []types.StreamEventType
			for _, e := range events {
				var ev types.StreamEvent
				Expect(json.Unmarshal([]byte(e.Data), &ev)).To(Succeed())
				evTypes = append(evTypes, ev.Type)
				if ev.Type == types.StreamToken {
					texts = append(texts, ev.Text)
				}
			}

			Expect(strings.Join(texts, "")).To(Equal("echo: hi there"))
			Expect(evTypes[len(evTypes)-1]).To(Equal(types.StreamComplete))
		})

		It("rejects a missing content field", func() {
			resp, err := sendMessage("msg-empty", "")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(400))
		})

		It("rejects an invalid JSON body", func() {
			resp, err := http.Post(ts.URL+"/session/msg-bad/message", "application/json", strings.NewReader("{not json"))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(400))
		})
	})

	Describe("GET /session/{sessionID}", func() {
		It("returns session info after first use", func() {
			resp, err := sendMessage("get-me", "hello")
			Expect(err).NotTo(HaveOccurred())
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			resp, err = http.Get(ts.URL + "/session/get-me")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(200))

			var info types.SessionInfo
			Expect(json.NewDecoder(resp.Body).Decode(&info)).To(Succeed())
			Expect(info.SessionID).To(Equal("get-me"))
			Expect(info.MessageCount).To(Equal(1))
			Expect(info.Active).To(BeTrue())
		})

		It("returns 404 for an unknown session", func() {
			resp, err := http.Get(ts.URL + "/session/never-created")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(404))
		})
	})

	Describe("GET /session", func() {
		It("lists active sessions", func() {
			resp, err := sendMessage("list-me", "hello")
			Expect(err).NotTo(HaveOccurred())
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			resp, err = http.Get(ts.URL + "/session")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var sessions []types.SessionInfo
			Expect(json.NewDecoder(resp.Body).Decode(&sessions)).To(Succeed())

			found := false
			for _, s := range sessions {
				if s.SessionID == "list-me" {
					found = true
				}
			}
			Expect(found).To(BeTrue())
		})
	})

	Describe("DELETE /session/{sessionID}", func() {
		It("closes the session", func() {
			resp, err := sendMessage("delete-me", "hello")
			Expect(err).NotTo(HaveOccurred())
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			req, err := http.NewRequest("DELETE", ts.URL+"/session/delete-me", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err = http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(200))

			// Closed sessions are gone.
			resp, err = http.Get(ts.URL + "/session/delete-me")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(404))

			// Closing twice is a 404.
			resp, err = http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(404))
		})
	})

	Describe("GET /health", func() {
		It("reports ok", func() {
			resp, err := http.Get(ts.URL + "/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(200))

			var health map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&health)).To(Succeed())
			Expect(health["status"]).To(Equal("ok"))
		})
	})
})

var _ = Describe("Lifecycle Event Streaming", func() {
	Describe("GET /event", func() {
		It("returns SSE headers", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/event", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(200))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache"))
		})

		It("delivers session lifecycle events", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/event", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			// Give the subscription time to register before the trigger.
			time.Sleep(100 * time.Millisecond)

			sessionID := fmt.Sprintf("evt-%d", time.Now().UnixNano())
			go func() {
				defer GinkgoRecover()
				r, err := sendMessage(sessionID, "trigger")
				Expect(err).NotTo(HaveOccurred())
				io.Copy(io.Discard, r.Body)
				r.Body.Close()
			}()

			scanner := bufio.NewScanner(resp.Body)
			var names []string
			for scanner.Scan() {
				line := scanner.Text()
				if strings.HasPrefix(line, "event: ") {
					names = append(names, strings.TrimPrefix(line, "event: "))
				}
				if len(names) >= 2 {
					break
				}
			}

			Expect(names).To(ContainElement("session.created"))
			Expect(names).To(ContainElement("message.completed"))
		})
	})
})
