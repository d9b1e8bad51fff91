// Package gen turns collection definitions into generated artifacts.
//
// # Architecture
//
// The generation pipeline follows this flow:
//
//	Definitions (compiler/load or schema values)
//	        ↓
//	   Graph (validated types, resolved relations)
//	        ↓
//	   Translator (one per host framework) + Emitters
//	        ↓
//	   Results (in-memory artifacts)
//	        ↓
//	   Writer (atomic files, or dry-run output)
//
// The definitions are framework independent. A Translator renders the
// configuration, service and type declarations for one host framework, so
// adding a target never touches validation.
//
// # Key Types
//
//   - Graph: holds the validated Types of a batch
//   - Type: a collection with naming helpers for translators
//   - Field: a field with its resolved relation target
//   - Config: global options, built with functional Options
//   - Generator: renders Results, one collection or the whole graph
//   - Writer: writes or prints Results
//
// # Error Handling
//
//   - ValidationError: invalid collection or field definition
//   - ConfigError: invalid option
//   - GenerationError: a translator or emitter failed
//   - IOError: an artifact could not be written
//
// Every error type matches a sentinel with errors.Is:
//
//	if errors.Is(err, gen.ErrInvalidDefinition) {
//		for _, ve := range gen.ValidationErrors(err) {
//			fmt.Println(ve.Collection, ve.Field, ve.Message, ve.Suggestions)
//		}
//	}
//
// # Batches
//
// Invalid collections are reported and skipped; the rest of the batch is
// still generated and written. Nothing already written is rolled back.
package gen
