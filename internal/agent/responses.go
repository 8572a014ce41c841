package agent

// Fallback responses for queries the agent cannot answer from the
// corpus. Each failure mode gets its own wording so a user (or a log
// reader) can tell them apart.
const (
	// responseNoDocuments is used when the corpus is empty or retrieval
	// found nothing at all.
	responseNoDocuments = "I don't have any documents to search yet. " +
		"Please ingest some resources first, then ask again."

	// responseNotRelevant is used when documents exist but none cleared
	// the similarity threshold.
	responseNotRelevant = "I couldn't find anything in the ingested documents " +
		"that relates to your question. Try rephrasing it, or ingest material " +
		"that covers this topic."

	// responseBackendError is used when evidence was retrieved but
	// answer generation failed.
	responseBackendError = "I found relevant passages but couldn't generate an " +
		"answer because the language model backend is unreachable. The sources " +
		"below may still help. Check the backend connection and retry."

	// responseAmbiguous asks for clarification instead of guessing.
	responseAmbiguous = "I'm not sure what you're asking. Could you rephrase " +
		"your question with a bit more detail?"
)
