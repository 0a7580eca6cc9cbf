package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	hostColor  = color.New(color.FgGreen, color.Bold)
	cwdColor   = color.New(color.FgBlue, color.Bold)
	frameColor = color.New(color.FgCyan)
)

// RenderPrompt fills the {host} and {cwd} placeholders of a prompt template.
func RenderPrompt(template, host, cwd string) string {
	r := strings.NewReplacer(
		"{host}", hostColor.Sprint(host),
		"{cwd}", cwdColor.Sprint(cwd),
	)
	return r.Replace(template)
}

const bannerRule = "**********************************************"

// Banner prints the welcome screen shown when the shell starts.
func Banner(w io.Writer, host string, batch bool) {
	mode := "INTERACTIVE"
	if batch {
		mode = "BATCH"
	}

	rule := func() { frameColor.Fprintf(w, "\t%s\n", bannerRule) }

	rule()
	fmt.Fprintf(w, "\t%s\n", centre("gbsh", len(bannerRule)))
	rule()
	fmt.Fprintf(w, "\t%s\n", centre("job control shell", len(bannerRule)))
	rule()
	fmt.Fprintf(w, "\n\t%s\n\n", centre("WORKING IN "+mode+" MODE", len(bannerRule)))
	rule()
	fmt.Fprintf(w, "\t  Welcome  %s\n", hostColor.Sprint(host))
	rule()
	fmt.Fprint(w, "\n\n")
}

func centre(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
