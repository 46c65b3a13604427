// ABOUTME: Embeds the chat UI and help documentation into the binary

package webchat

import _ "embed"

//go:embed ui/index.html
var indexPage []byte

//go:embed docs/help.md
var helpDoc []byte
