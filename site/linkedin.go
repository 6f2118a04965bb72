package site

import (
	"strings"

	"github.com/hazyhaar/repli/dom"
)

// linkedInSharePlaceholder is the placeholder of the "start a post" editor.
const linkedInSharePlaceholder = "What do you want to talk about?"

const linkedInEditor = `div.ql-editor[role="textbox"]`

var linkedIn = Adapter{
	Name:        "linkedin",
	URLPrefixes: []string{"https://www.linkedin.com"},
	Mode:        Continuous,

	// The emoji button sits four levels below the comment box toolbar.
	TriggerInsertionSelector: `svg[data-test-icon="emoji-medium"]`,
	ContainerDepth:           4,

	PostTextSelector:   `div[class~="feed-shared-update-v2__description-wrapper"]`,
	AuthorNameSelector: `span[class~="update-components-actor__name"] > span > span`,
	InputSelector:      linkedInEditor,

	MaxInjectedPerContainer: 1,
	TriggerTitle:            "Generate reply",

	prompt: newPrompt("linkedin", `Write a response to the below LinkedIn post. Be professional and fun.
Remember the goal is to network, showing business and technical savvy where possible.
Return only the post text, do not include explanations, or wrap the text in quotes.
{{instructions .Instructions}}
Here is the post, by {{.Author}}:
{{.Text}}
`),
	compose: linkedInCompose,
}

func linkedInCompose(anchor dom.Node) (bool, error) {
	ed, err := dom.FindNearestAncestorMatchingDescendant(anchor, linkedInEditor)
	if err != nil || ed == nil {
		return false, err
	}
	ph, _, err := ed.Attribute("data-placeholder")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(ph) == linkedInSharePlaceholder, nil
}
