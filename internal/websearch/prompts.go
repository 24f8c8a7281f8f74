package websearch

import "fmt"

const groundedSystemPrompt = "You are a helpful AI assistant with access to current web search results. " +
	"Provide clear, accurate, and helpful responses. " +
	"When using web search results, cite your sources by mentioning the information came from web search."

const streamingSystemPrompt = "You are a knowledgeable AI assistant with access to real-time web search results. " +
	"Your responses should be:\n" +
	"1. Accurate and based on the current web search results provided\n" +
	"2. Well-structured with clear sections or bullet points when appropriate\n" +
	"3. Comprehensive yet concise\n" +
	"4. Include relevant facts, dates, and context from the search results\n" +
	"5. Cite sources by mentioning website names or organizations when presenting information\n" +
	"6. Provide up-to-date information based on the search results\n\n" +
	"Format your response in a user-friendly way with proper paragraphs and organization."

// groundedUserTurn wraps the user's question with the search context so the
// final turn carries both the question and its evidence.
func groundedUserTurn(question, searchContext string) string {
	return fmt.Sprintf("Question: %s\n\n%s\n\nBased on the web search results provided above, "+
		"please give me a comprehensive and well-organized answer to my question. "+
		"Structure your response with clear paragraphs and include relevant details from the sources.",
		question, searchContext)
}
