package virality

// Phrase lists are matched as lowercase substrings; order is the order hits are reported in.
var (
	hookPhrases = []string{
		"wait for it",
		"you won't believe",
		"did you know",
		"stop scrolling",
		"watch till the end",
		"here's why",
		"this is why",
		"the secret",
		"nobody talks about",
		"what happens next",
		"pov",
		"what if",
		"how to",
	}

	ctaPhrases = []string{
		"follow for more",
		"follow me",
		"comment below",
		"let me know",
		"share this",
		"share with",
		"tag a friend",
		"save this",
		"save for later",
		"link in bio",
		"like if",
		"subscribe",
	}

	retentionPhrases = []string{
		"step 1",
		"step one",
		"first",
		"second",
		"next",
		"then",
		"finally",
		"part 2",
		"tip",
		"here's how",
		"in the end",
		"stay until the end",
	}
)

// HookPhrases returns a copy of the opening-hook vocabulary
func HookPhrases() []string { return append([]string(nil), hookPhrases...) }

// CTAPhrases returns a copy of the call-to-action vocabulary
func CTAPhrases() []string { return append([]string(nil), ctaPhrases...) }

// RetentionPhrases returns a copy of the structure/retention vocabulary
func RetentionPhrases() []string { return append([]string(nil), retentionPhrases...) }
