package site

import (
	"strings"

	"github.com/hazyhaar/repli/dom"
)

var twitter = Adapter{
	Name: "twitter",
	URLPrefixes: []string{
		"https://twitter.com/compose/post",
		"https://pro.twitter.com/compose/post",
		"https://x.com/compose/post",
	},
	Mode: OneShot,

	TriggerInsertionSelector: `div[data-testid="tweetButton"]`,
	ContainerDepth:           1,

	PostTextSelector:   `div[data-testid="tweetText"]`,
	AuthorNameSelector: `[data-testid="tweet"] [data-testid="User-Name"] span`,
	InputSelector:      `div[data-testid^="tweetTextarea_"][role="textbox"]`,

	MaxInjectedPerContainer: 1,
	TriggerTitle:            "Generate reply",

	prompt: newPrompt("twitter", `Write a response to the below tweet. Be fun and flip.
Return only the post text, do not include explanations, or wrap the text in quotes.
{{instructions .Instructions}}
Here is the tweet, by {{.Author}}:
{{.Text}}
`),
	compose: twitterCompose,
}

// The same button posts a new tweet and sends a reply; only its label
// tells them apart.
func twitterCompose(anchor dom.Node) (bool, error) {
	label, err := anchor.Text()
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(label) {
	case "Post", "Tweet":
		return true, nil
	}
	return false, nil
}
