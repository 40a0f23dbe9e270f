package qa

import (
	"github.com/cloudwego/eino/components/prompt"

	"github.com/54b3r/docqa-go/internal/llm"
)

// SystemPrompt frames both QA prompts.
const SystemPrompt = `You are a precise assistant answering questions about a document collection. Use only the provided text. If the text does not contain the answer, say that you don't know.`

// SummarizeTemplate extracts the part of one retrieved document relevant to
// the question. Variables: {question}, {content}.
const SummarizeTemplate = `Use the following portion of a long document to see if any of the text is relevant to answer the question.
Return any relevant text verbatim.
QUESTION: {question}
=========
{content}
=========
Relevant text, if any:`

// CombineTemplate answers from the combined documents and asks for a
// trailing sources line. Variable: {content}, which already holds the
// question header.
const CombineTemplate = `Given the following extracted parts of a long document and a question, create a final answer with references ("SOURCES").
If you don't know the answer, just say that you don't know. Don't try to make up an answer.
ALWAYS end your answer with a line formatted as "Sources: <source>, <source>" listing the Source values you used.

{content}
FINAL ANSWER:`

// DefaultSummarizePrompt returns the summarisation chat template.
func DefaultSummarizePrompt() prompt.ChatTemplate {
	return llm.Template(SystemPrompt, SummarizeTemplate)
}

// DefaultCombinePrompt returns the final-answer chat template.
func DefaultCombinePrompt() prompt.ChatTemplate {
	return llm.Template(SystemPrompt, CombineTemplate)
}
