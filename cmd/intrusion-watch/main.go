package main

import "github.com/oshokin/zone-intrusion/cmd/intrusion-watch/cmd"

func main() {
	cmd.Execute()
}
