package meta

// stopwords are excluded from tag derivation. The set covers common English
// function words plus export-domain noise that would otherwise tag every
// single note.
var stopwords = map[string]bool{}

func init() {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "am", "an", "and",
		"any", "are", "aren", "as", "at", "be", "because", "been", "before", "being",
		"below", "between", "both", "but", "by", "can", "cannot", "could", "couldn",
		"did", "didn", "do", "does", "doesn", "doing", "don", "down", "during",
		"each", "few", "for", "from", "further", "had", "hadn", "has", "hasn",
		"have", "haven", "having", "he", "her", "here", "hers", "herself", "him",
		"himself", "his", "how", "i", "if", "in", "into", "is", "isn", "it", "its",
		"itself", "let", "me", "more", "most", "mustn", "my", "myself", "no", "nor",
		"not", "of", "off", "on", "once", "only", "or", "other", "ought", "our",
		"ours", "ourselves", "out", "over", "own", "same", "shan", "she", "should",
		"shouldn", "so", "some", "such", "than", "that", "the", "their", "theirs",
		"them", "themselves", "then", "there", "these", "they", "this", "those",
		"through", "to", "too", "under", "until", "up", "very", "was", "wasn", "we",
		"were", "weren", "what", "when", "where", "which", "while", "who", "whom",
		"why", "with", "won", "would", "wouldn", "you", "your", "yours", "yourself",
		"yourselves",
		// export-domain noise
		"gemini", "apps", "bard", "html", "google", "please", "thank", "thanks",
		"help", "need", "want", "get", "make", "know", "think", "like", "use",
		"work", "see", "say",
	}
	for _, w := range words {
		stopwords[w] = true
	}
}
