package ingest

import (
	"bufio"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chunker splits plain text into roughly-even chunks on word boundaries.
type Chunker struct {
	MaxTokens int
}

// Chunk splits text into pieces of at most MaxTokens estimated tokens.
// name seeds the chunk IDs so re-ingesting the same file is idempotent.
func (c Chunker) Chunk(name, text string) ([]string, []string, error) {
	max := c.MaxTokens
	if max <= 0 {
		max = 512
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Split(bufio.ScanWords)

	var (
		ids     []string
		chunks  []string
		builder strings.Builder
		count   int
		idx     int
	)

	emit := func() {
		if builder.Len() == 0 {
			return
		}
		ids = append(ids, chunkID(name, idx))
		chunks = append(chunks, builder.String())
		idx++
		builder.Reset()
		count = 0
	}

	for scanner.Scan() {
		word := scanner.Text()
		wordTokens := estimateTokens(word)
		if count+wordTokens > max && builder.Len() > 0 {
			emit()
		}
		if builder.Len() > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(word)
		count += wordTokens
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	emit()
	return ids, chunks, nil
}

// estimateTokens approximates subword tokenization by rune count.
func estimateTokens(word string) int {
	if word == "" {
		return 0
	}
	runes := utf8.RuneCountInString(word)
	switch {
	case runes <= 4:
		return 1
	case runes <= 8:
		return 2
	case runes <= 16:
		return 3
	default:
		return 4
	}
}

func chunkID(name string, idx int) string {
	if name == "" {
		return fmt.Sprintf("chunk-%d", idx)
	}
	sanitized := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "/", "_")
	if sanitized == "" {
		sanitized = "chunk"
	}
	return fmt.Sprintf("%s#%d", sanitized, idx)
}
