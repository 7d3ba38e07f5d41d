// Package annotator collects Best-Worst Scaling (BWS) typicality judgements from a
// large language model.
//
// Each target item is a 4-tuple of Spanish words with their Dutch translations. The
// model is asked which word is the most and which the least typical of a domain
// (economics, health, law, migration) and replies with two word IDs separated by a
// semicolon. The reply is parsed leniently and appended, together with the raw text,
// to a per-domain, per-model output file.
//
// Features:
//   - Closed registry of supported models and their chat message formats
//   - Prompt templates embedded in the binary
//   - Position-based reply parser that never fails, keeping the raw reply for review
//   - Append-only record writer
//   - Optional retry, circuit breaker and rate limiting around the chat client
//   - Prometheus metrics integration
//
// Basic usage:
//
//	cfg := annotator.NewDefaultConfig("Llama-3.1-8B")
//	r, err := annotator.NewRunner(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	summary, err := r.Run(ctx)
package annotator
