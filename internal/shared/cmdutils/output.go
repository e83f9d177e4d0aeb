package cmdutils

import "fmt"

const logo = "💊"

// PrintResponse writes an assistant reply to stdout under the product banner.
func PrintResponse(text string) {
	if text == "" {
		return
	}

	fmt.Printf("\n%s pillpal\n%s\n\n", logo, text)
}
