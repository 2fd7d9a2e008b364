package cmd

import (
	"fmt"
	"io"
)

const banner = `
  _ __   ___ _ __   __ _ ___ ___ 
 | '_ \ / __| '_ \ / _` + "`" + ` / __/ __|
 | | | | (__| |_) | (_| \__ \__ \
 |_| |_|\___| .__/ \__,_|___/___/
            |_|                  
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Nextcloud Passwords autofill - Version %s\x1b[0m\n\n", Version)
}
