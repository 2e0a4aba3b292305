// Command exampleagent is a minimal illustration of the external "agent
// process" role described by the transcript/speak_text interfaces: it
// polls a running meetbot's /transcript resource, feeds the latest new
// participant segment to an LLM, and posts the reply to /speak. It is not part of
// the pipeline itself — a stand-in for whatever orchestration a real
// deployment would build on top.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
	"github.com/lokutor-ai/meetbot/pkg/providers/llm"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "meetbot HTTP address")
	pollInterval := flag.Duration("poll", 2*time.Second, "transcript poll interval")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("note: no .env file found, using process environment")
	}

	groqKey := os.Getenv("GROQ_API_KEY")
	if groqKey == "" {
		log.Fatal("exampleagent: GROQ_API_KEY must be set")
	}
	model := llm.NewGroqLLM(groqKey, "")

	systemPrompt := llm.Message{Role: "system", Content: "You are a helpful meeting assistant. Use short sentences suitable for speech."}

	seen := 0
	for range time.Tick(*pollInterval) {
		snap, err := fetchTranscript(*addr)
		if err != nil {
			log.Printf("exampleagent: fetch transcript: %v", err)
			continue
		}
		if len(snap.Segments) <= seen {
			continue
		}
		fresh := snap.Segments[seen:]
		seen = len(snap.Segments)

		var latest meetbot.TranscriptSegment
		found := false
		for _, seg := range fresh {
			if seg.Role == meetbot.RoleParticipant {
				latest = seg
				found = true
			}
		}
		if !found {
			continue
		}

		reply, err := model.Complete(context.Background(), []llm.Message{systemPrompt, {Role: "user", Content: latest.Text}})
		if err != nil {
			log.Printf("exampleagent: llm completion: %v", err)
			continue
		}

		if err := postSpeak(*addr, reply); err != nil {
			log.Printf("exampleagent: speak: %v", err)
		}
	}
}

func fetchTranscript(addr string) (meetbot.Snapshot, error) {
	resp, err := http.Get(addr + "/transcript")
	if err != nil {
		return meetbot.Snapshot{}, err
	}
	defer resp.Body.Close()

	var snap meetbot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return meetbot.Snapshot{}, err
	}
	return snap, nil
}

func postSpeak(addr, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	resp, err := http.Post(addr+"/speak", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("speak: unexpected status %s", resp.Status)
	}
	return nil
}
