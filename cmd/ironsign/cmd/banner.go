package cmd

import (
	"fmt"
	"io"
)

const banner = `
  _____                  _____ _             
 |_   _|                / ____(_)            
   | |  _ __ ___  _ __ | (___  _  __ _ _ __  
   | | | '__/ _ \| '_ \ \___ \| |/ _` + "`" + ` | '_ \ 
  _| |_| | | (_) | | | |____) | | (_| | | | |
 |_____|_|  \___/|_| |_|_____/|_|\__, |_| |_|
                                  __/ |      
                                 |___/       
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Deterministic Signing Identity - Version %s\x1b[0m\n\n", Version)
}
