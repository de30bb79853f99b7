package export

import (
	"fmt"
	"strings"
	"time"

	"jikecli/pkg/jike"
)

// renderDocument builds the complete markdown export: a header with the
// user's profile followed by every record, oldest first, separated by rules
func renderDocument(records []Record, user jike.User, exportedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (@%s) - Jike Posts Export\n\n", user.ScreenName, user.Username)
	fmt.Fprintf(&b, "**Bio**: %s\n", user.Bio)
	fmt.Fprintf(&b, "**Total posts**: %d\n", len(records))
	fmt.Fprintf(&b, "**Exported at**: %s\n\n", exportedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("---\n\n")

	for _, rec := range records {
		b.WriteString(renderRecord(rec))
	}

	return b.String()
}

// renderRecord renders one post as a markdown section
func renderRecord(rec Record) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("### %d. %s", rec.Index, rec.Timestamp), "")

	if rec.Topic != "" {
		lines = append(lines, fmt.Sprintf("> Topic: **%s**", rec.Topic), "")
	}

	if rec.Type == "REPOST" && rec.Repost != nil {
		lines = append(lines, fmt.Sprintf("*Repost from @%s*", rec.Repost.Author), "")
	}

	if rec.Content != "" {
		lines = append(lines, rec.Content, "")
	}

	if len(rec.Pictures) > 0 {
		for _, url := range rec.Pictures {
			lines = append(lines, fmt.Sprintf("![img](%s)", url))
		}
		lines = append(lines, "")
	}

	if rec.Link != nil {
		title := rec.Link.Title
		if title == "" {
			title = rec.Link.URL
		}
		lines = append(lines, fmt.Sprintf("[%s](%s)", title, rec.Link.URL), "")
	}

	if rec.Repost != nil {
		lines = append(lines, fmt.Sprintf("> **@%s**:", rec.Repost.Author))
		if rec.Repost.Content != "" {
			for _, line := range strings.Split(rec.Repost.Content, "\n") {
				lines = append(lines, "> "+line)
			}
		}
		if len(rec.Repost.Pictures) > 0 {
			lines = append(lines, ">")
			for _, url := range rec.Repost.Pictures {
				lines = append(lines, fmt.Sprintf("> ![img](%s)", url))
			}
		}
		if rec.Repost.Link != nil {
			title := rec.Repost.Link.Title
			if title == "" {
				title = rec.Repost.Link.URL
			}
			lines = append(lines, fmt.Sprintf("> [%s](%s)", title, rec.Repost.Link.URL))
		}
		lines = append(lines, "")
	}

	lines = append(lines, fmt.Sprintf("<sub>ID: %s</sub>", rec.ID), "", "---", "")

	return strings.Join(lines, "\n") + "\n"
}
