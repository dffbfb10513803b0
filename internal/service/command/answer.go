package command

import (
	"fmt"
	"strings"

	"github.com/sandevgo/tuskqa/internal/service/qa"
)

// FormatAnswer renders an answer with a footer naming its sources.
func FormatAnswer(ans qa.Answer) string {
	var footer []string
	if len(ans.Citations) > 0 {
		footer = append(footer, "sources: "+strings.Join(ans.Citations, ", "))
	}
	if ans.Confidence != nil {
		footer = append(footer, fmt.Sprintf("confidence %.2f", *ans.Confidence))
	}
	if len(footer) == 0 {
		return ans.Text
	}
	return fmt.Sprintf("%s\n\n_%s_", ans.Text, strings.Join(footer, " · "))
}
