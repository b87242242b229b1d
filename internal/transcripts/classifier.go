package transcripts

import (
	"bufio"
	"encoding/json"
	"os"
)

// Speaker identifies who produced the last meaningful transcript entry.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// maxLineSize bounds a single transcript line. Assistant turns with large
// embedded tool output can exceed bufio's default 64KB.
const maxLineSize = 4 * 1024 * 1024

// transcriptLine is the subset of a transcript entry the classifier needs.
// Content is raw because the external agent writes either a plain string or
// a list of typed parts.
type transcriptLine struct {
	Type    string `json:"type"`
	Message struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// textOf flattens the content field to plain text.
func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	out := ""
	for _, p := range parts {
		if p.Type == "text" && p.Text != "" {
			if out != "" {
				out += "\n"
			}
			out += p.Text
		}
	}
	return out
}

// LastMeaningfulEntry scans a transcript and reports whether the user or
// the assistant produced the last message with actual text. Tool results
// and system noise are skipped. Best effort: any read or parse problem
// simply yields ok=false, callers fall back to the persisted status.
func LastMeaningfulEntry(path string) (Speaker, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	var last Speaker
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry transcriptLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type != string(SpeakerUser) && entry.Type != string(SpeakerAssistant) {
			continue
		}
		if textOf(entry.Message.Content) == "" {
			continue
		}
		last = Speaker(entry.Type)
	}
	return last, last != ""
}

// LastAssistantMessage extracts the most recent assistant text from a
// transcript, along with the transcript's size in bytes at read time. The
// size feeds summary_transcript_size bookkeeping.
func LastAssistantMessage(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry transcriptLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type != string(SpeakerAssistant) {
			continue
		}
		if text := textOf(entry.Message.Content); text != "" {
			last = text
		}
	}
	if err := scanner.Err(); err != nil {
		return "", 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return last, 0, err
	}
	return last, info.Size(), nil
}
