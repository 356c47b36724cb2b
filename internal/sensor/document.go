package sensor

// Document is one candidate piece of evidence: an object-store entry with
// its raw text, whatever JSON could be recovered from it, its classified
// shape and its relevance score. Instances live for one query only.
type Document struct {
	Key           string   // object-store key path
	Text          string   // raw text as fetched (possibly truncated)
	JSON          any      // decoded value, nil when all parse strategies failed
	Kind          Kind     // classified shape, KindUnknown when JSON is nil
	Score         int      // relevance score, higher is better
	Size          int64    // byte size as reported by the store
	Tag           string   // citation tag ("D1", "D2", ...) assigned after ranking
	ParseFailures []string // reasons from parse strategies that were tried and failed
}
