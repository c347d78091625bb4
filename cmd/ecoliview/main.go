package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vl4deee11/ecoli/viewer"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "stream address")
	scale := flag.Int("scale", 1, "pixels per cell")
	flag.Parse()

	v, err := viewer.Dial(*url, *scale)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := v.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
