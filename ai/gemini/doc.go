// Package gemini implements ai.LanguageModel with Google Gemini through the
// google.golang.org/genai SDK.
//
// A config with an APIKey talks to the Gemini API; otherwise the model is
// reached through Vertex AI with application default credentials, in
// GeminiProject and GeminiLocation. Gemini has no role in the tag index, so
// the Provider pairs the Gemini model with the OpenAI-compatible embedder
// from the ai/openai package.
package gemini
