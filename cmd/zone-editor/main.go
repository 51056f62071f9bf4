package main

import "github.com/oshokin/zone-intrusion/cmd/zone-editor/cmd"

func main() {
	cmd.Execute()
}
