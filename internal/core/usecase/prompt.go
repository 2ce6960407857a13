package usecase

import (
	"fmt"
	"strings"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

// Rephrasing runs at a fixed low temperature so retrieval queries stay
// stable while answer tone follows the caller-supplied temperature.
const rephraseTemperature = 0.3

func buildRephrasePrompt(messages []domain.Message) string {
	var history strings.Builder
	for _, msg := range messages {
		history.WriteString(msg.Role)
		history.WriteString(": ")
		history.WriteString(msg.Text())
		history.WriteString("\n")
	}

	return fmt.Sprintf(`Given the following conversation and the last question as a follow up question,
rephrase the follow up question to be a standalone question.

Chat History:
%s
Standalone question:`, history.String())
}

func buildAnswerPrompt(documents []domain.Document, question string) string {
	var contextBuilder strings.Builder
	for _, doc := range documents {
		contextBuilder.WriteString(doc.Content)
		contextBuilder.WriteString("\n")
	}

	return fmt.Sprintf(`You are a chatbot that can have a conversation about food dishes from the context.
Answer the question in less than 80 words with an unbiased and fun tone.
If the context is not related to the question, just say "Hmm, I'm not sure."
Do not make up an answer; use only the provided context.

Context:
%s
Question: %s`, contextBuilder.String(), question)
}
