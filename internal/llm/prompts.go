package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxPromptRunes bounds document text embedded in a single prompt.
const maxPromptRunes = 24000

// maxCorpusEntryRunes bounds each comparison document in a similarity prompt.
const maxCorpusEntryRunes = 1500

const summarySystemEnglish = "You are an operations analyst for a metro rail organisation. " +
	"You read internal documents and extract the actionable points that staff need."

const summarySystemMalayalam = summarySystemEnglish + " Always answer in Malayalam."

const categorizeSystem = "You route internal documents to the responsible department. " +
	"Answer with a single JSON object and nothing else."

const similaritySystem = "You compare documents for topical similarity. " +
	"Answer with a single JSON object and nothing else."

const titleSystem = "You write short, specific titles for internal documents. " +
	"Answer with the title only, without quotes."

func summaryRequest(text, language string) Request {
	system := summarySystemEnglish
	instruction := "Summarize this document focusing on action items, deadlines, responsibilities and operational impact. " +
		"Use 4-6 Markdown bullet points and at most about 120 words."
	if language == "malayalam" {
		system = summarySystemMalayalam
		instruction += " Write the bullet points in Malayalam."
	}
	return Request{
		System:    system,
		User:      instruction + "\n\n" + clip(text, maxPromptRunes),
		MaxTokens: 600,
	}
}

func categorizeRequest(text string, departments []string) Request {
	var b strings.Builder
	b.WriteString("Classify the document below. Return JSON with exactly these keys:\n")
	b.WriteString(`{"department": string, "priority": "low"|"medium"|"high"|"urgent", "category": string, `)
	b.WriteString(`"tags": string[], "actionItems": string[], "deadline": string|null, "stakeholders": string[]}`)
	b.WriteString("\n")
	if len(departments) > 0 {
		fmt.Fprintf(&b, "department must be one of: %s.\n", strings.Join(departments, ", "))
	}
	b.WriteString("deadline is an ISO-8601 date (YYYY-MM-DD) when the document states one, otherwise null.\n")
	b.WriteString("tags are short lowercase keywords. Keep at most 8 tags and 10 action items.\n\n")
	b.WriteString(clip(text, maxPromptRunes))
	return Request{
		System:    categorizeSystem,
		User:      b.String(),
		JSON:      true,
		MaxTokens: 800,
	}
}

func similarityRequest(candidate string, corpus []string) Request {
	var b strings.Builder
	b.WriteString("Score how similar each numbered document is to the target document, from 0 (unrelated) to 1 (same topic).\n")
	fmt.Fprintf(&b, `Return JSON {"scores": number[]} with exactly %d numbers in document order.`, len(corpus))
	b.WriteString("\n\nTarget document:\n")
	b.WriteString(clip(candidate, maxCorpusEntryRunes*2))
	for i, doc := range corpus {
		fmt.Fprintf(&b, "\n\nDocument %d:\n%s", i+1, clip(doc, maxCorpusEntryRunes))
	}
	return Request{
		System:    similaritySystem,
		User:      b.String(),
		JSON:      true,
		MaxTokens: 16 + 8*len(corpus),
	}
}

func titleRequest(text, language string) Request {
	instruction := "Write a title of at most 10 words for this document."
	if language == "malayalam" {
		instruction = "Write a title of at most 10 words for this document, in Malayalam."
	}
	return Request{
		System:    titleSystem,
		User:      instruction + "\n\n" + clip(text, maxCorpusEntryRunes*2),
		MaxTokens: 40,
	}
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
