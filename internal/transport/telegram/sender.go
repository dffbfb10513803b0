package telegram

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/tuskqa/pkg/conv"
	"github.com/sandevgo/tuskqa/pkg/log"
	tele "gopkg.in/telebot.v3"
)

// Telegram rejects messages over 4096 characters; HTML tags count too.
const maxChunkLen = 4000

// poster is the part of *tele.Bot that delivers replies.
type poster interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type sender struct {
	out poster
}

func newSender(out poster) *sender {
	return &sender{out: out}
}

// sendMarkdown renders an answer or command reply as Telegram HTML and posts it
// in as many messages as it takes. Only the first message may notify silently.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, md string, silent bool) error {
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))
	if html == "" {
		return nil
	}

	chunks := splitHTML(html, maxChunkLen)
	for i, chunk := range chunks {
		opts := []interface{}{tele.ModeHTML}
		if silent && i == 0 {
			opts = append(opts, tele.Silent)
		}
		if _, err := s.out.Send(to, chunk, opts...); err != nil {
			log.FromCtx(ctx).Error().Err(err).
				Int("part", i+1).
				Int("parts", len(chunks)).
				Msg("reply not delivered")
			return fmt.Errorf("send part %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

// splitHTML cuts text into pieces of at most limit bytes, at a blank line or
// newline when one sits past the first third of the piece.
func splitHTML(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := breakPoint(text, limit)
		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func breakPoint(text string, limit int) int {
	for _, sep := range []string{"\n\n", "\n"} {
		if i := strings.LastIndex(text[:limit], sep); i > limit/3 {
			return i
		}
	}
	// never split a multi-byte character
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}
