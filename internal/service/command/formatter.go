package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tuskqa/internal/core"
)

// Replies are markdown. Telegram renders them as HTML, the terminal as plain text.

func heading(title string) string {
	return fmt.Sprintf("**%s**\n", title)
}

func saved(what string) string {
	return "✅ " + what + "\n"
}

func failed(command string, err error) string {
	return fmt.Sprintf("❌ /%s failed: %s\n", command, err)
}

func usage(syntax string, examples ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Usage**: `%s`\n", syntax)
	for _, ex := range examples {
		fmt.Fprintf(&sb, "e.g. `%s`\n", ex)
	}
	return sb.String()
}

func hint(text string) string {
	return "_" + text + "_\n"
}

func field(label, value string) string {
	return fmt.Sprintf("**%s**: `%s`\n", label, value)
}

func bullets(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("› " + item + "\n")
	}
	return sb.String()
}

func factLine(f core.Fact) string {
	line := fmt.Sprintf("`fact_%s` %s", f.ID, f.Content)
	if f.Source != "" {
		line += " · " + f.Source
	}
	return line
}

func evidenceLine(e core.EvidenceItem) string {
	line := fmt.Sprintf("`%s` %s", e.ID, e.Text)
	if e.HasTime() {
		line += " · " + e.ObservedAt.Local().Format(time.DateTime)
	}
	return line
}

// historyEntry shows one past exchange with the ids it cited.
func historyEntry(r core.QARecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "❓ **%s**\n%s\n", r.Question, r.Answer)

	var meta []string
	if !r.CreatedAt.IsZero() {
		meta = append(meta, r.CreatedAt.Local().Format(time.DateTime))
	}
	if len(r.CitedFacts) > 0 {
		meta = append(meta, "cited "+strings.Join(r.CitedFacts, ", "))
	}
	if r.Confidence != nil {
		meta = append(meta, fmt.Sprintf("confidence %.2f", *r.Confidence))
	}
	if len(meta) > 0 {
		sb.WriteString("_" + strings.Join(meta, " · ") + "_\n")
	}
	return sb.String()
}

func join(sections ...string) string {
	return strings.Join(sections, "\n")
}
