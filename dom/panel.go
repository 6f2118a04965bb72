package dom

import "github.com/microcosm-cc/bluemonday"

// PanelTitle heads the modal error panel.
const PanelTitle = "repli"

// PanelDismiss labels the panel's only action.
const PanelDismiss = "Close"

var panelPolicy = bluemonday.UGCPolicy()

// PanelHTML sanitizes an error message before it is written into the host
// page as markup. Links and inline formatting survive; scripts and event
// handlers do not.
func PanelHTML(message string) string {
	return panelPolicy.Sanitize(message)
}
