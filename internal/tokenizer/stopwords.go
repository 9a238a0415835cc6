package tokenizer

// English stopwords stripped during lexeme extraction. Matches the short
// function-word list used by common full-text configurations; tokens on
// this list carry no ranking signal for catalog names and descriptions.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "in": true, "is": true, "it": true,
	"its": true, "not": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "this": true, "to": true, "was": true,
	"were": true, "will": true, "with": true,
}

// IsStopword reports whether a normalized token is on the stopword list.
func IsStopword(token string) bool {
	return stopwords[token]
}
