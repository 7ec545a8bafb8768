// Package extraction turns one annotated sentence into deduplicated
// (subject, relation, object) triples.
//
// Every function here is pure over a read-only types.AnnotatedSentence, so the
// extractors can be exercised with hand-built fixtures. Confidence tiers are the
// constants in types; the co-occurrence fallback only runs when the primary
// extractors found nothing.
package extraction
