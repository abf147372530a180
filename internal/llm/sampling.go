package llm

import "strings"

// Sampling windows, in characters.
const (
	WholeTextLimit = 20000
	FrontWindow    = 10000
	MiddleWindow   = 5000
	EndWindow      = 5000
)

// Window labels shown to the model.
const (
	LabelFront  = "FRONT"
	LabelMiddle = "MIDDLE SAMPLE"
	LabelEnd    = "END SECTION"
)

// Window is one labelled slice of the document text.
type Window struct {
	Label string
	Text  string
}

// Windows splits text into front, middle and end slices.
// Long text (over WholeTextLimit) yields the first FrontWindow characters, MiddleWindow
// characters centred at the midpoint and the last EndWindow characters. Shorter text is
// partitioned into front, body and end without overlap; some of those may be empty.
func Windows(text string) []Window {
	runes := []rune(text)
	n := len(runes)

	if n > WholeTextLimit {
		mid := n/2 - MiddleWindow/2
		return []Window{
			{Label: LabelFront, Text: string(runes[:FrontWindow])},
			{Label: LabelMiddle, Text: string(runes[mid : mid+MiddleWindow])},
			{Label: LabelEnd, Text: string(runes[n-EndWindow:])},
		}
	}

	frontEnd := min(n, FrontWindow)
	endStart := max(frontEnd, n-EndWindow)
	return []Window{
		{Label: LabelFront, Text: string(runes[:frontEnd])},
		{Label: LabelMiddle, Text: string(runes[frontEnd:endStart])},
		{Label: LabelEnd, Text: string(runes[endStart:])},
	}
}

// Sample returns the bounded text sent in single-pass mode: the whole text when it
// fits, otherwise the three labelled windows concatenated.
func Sample(text string) string {
	if len([]rune(text)) <= WholeTextLimit {
		return text
	}
	var b strings.Builder
	for i, w := range Windows(text) {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(windowHeader(w.Label))
		b.WriteString(w.Text)
	}
	return b.String()
}

func windowHeader(label string) string {
	return "--- " + label + " ---\n"
}

// headTail returns the first and last n characters of text.
func headTail(text string, n int) (string, string) {
	runes := []rune(text)
	if len(runes) <= n {
		return text, text
	}
	return string(runes[:n]), string(runes[len(runes)-n:])
}
