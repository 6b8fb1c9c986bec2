// internal/article/prompt.go
package article

import (
	"fmt"
	"strings"
)

// MinWords is the length the prompt asks the model for.
const MinWords = 600

// BuildPrompt returns the instruction sent to the language model. title is the
// video title, or the video URL when no title is known. language is optional.
func BuildPrompt(transcript, title, language string) string {
	var b strings.Builder
	b.WriteString("Write an SEO-optimized blog post based on:\n")
	fmt.Fprintf(&b, "- Video title: %s\n", title)
	fmt.Fprintf(&b, "- Content: %s\n", transcript)
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "1. More than %d words, with an engaging title\n", MinWords)
	b.WriteString("2. A meta description\n")
	b.WriteString("3. 5-10 keyword tags\n")
	b.WriteString("4. HTML or markdown\n")
	if language = strings.TrimSpace(language); language != "" {
		fmt.Fprintf(&b, "5. Write the article in %s\n", language)
	}
	return b.String()
}
